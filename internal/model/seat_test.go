package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSection(t *testing.T) {
	for _, name := range Sections {
		assert.True(t, ValidSection(name), name)
	}

	for _, name := range []string{SectionAll, "", "quiet zone", "Basement", "Quiet Zone "} {
		assert.False(t, ValidSection(name), name)
	}
}
