package utils

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestFoldDigits(t *testing.T) {
	assert.Equal(t, "SpO2 96%", FoldDigits("SpO₂ 96%"))
	assert.Equal(t, "O2 e m2", FoldDigits("O² e m²"))
	assert.Equal(t, "testo invariato", FoldDigits("testo invariato"))
}

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("nota"), HashString("nota"))
	assert.NotEqual(t, HashString("nota"), HashString("nota diversa"))
	assert.Equal(t, HashString("ab"), HashBytes([]byte("a"), []byte("b")))
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic("boom")
	}
	err := run()
	assert.EqualError(t, err, "got panic: boom")
}
