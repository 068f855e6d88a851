package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)
}
