package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrNil(t *testing.T) {
	assert.Nil(t, StringOrNil("   "))
	assert.Equal(t, "magnus", *StringOrNil(" magnus "))
}

func TestOrZero(t *testing.T) {
	assert.Equal(t, 0, OrZero[int](nil))
	assert.Equal(t, 7, OrZero(Ptr(7)))
}

func TestIntOrNil(t *testing.T) {
	v, err := IntOrNil("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = IntOrNil(" 2850 ")
	require.NoError(t, err)
	assert.Equal(t, 2850, *v)

	_, err = IntOrNil("lots")
	assert.Error(t, err)
}
