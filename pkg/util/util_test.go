package util

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("3\r\n0 1 2\n\nlast"))

	want := []string{"3", "0 1 2", "", "last"}
	for _, w := range want {
		line, err := ReadLine(br)
		require.NoError(t, err)
		assert.Equal(t, w, line)
	}

	_, err := ReadLine(br)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("strconv.ParseInt: parsing \"x\": invalid syntax")
	err := WrapErrorf(orig, ErrBadParamInput, "line %d", 7)

	assert.True(t, errors.Is(err, ErrBadParamInput))
	assert.True(t, errors.Is(err, orig))
	assert.Equal(t, "line 7: "+orig.Error(), err.Error())

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, ErrBadParamInput, uerr.Code())

	assert.False(t, errors.Is(WrapErrorf(nil, nil, "no code"), ErrBadParamInput))
}
