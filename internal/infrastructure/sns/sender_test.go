package sns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0911 234 567":   "+251911234567",
		"911234567":      "+251911234567",
		"251911234567":   "+251911234567",
		"+251-911234567": "+251911234567",
		"+14155550100":   "+14155550100",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}
