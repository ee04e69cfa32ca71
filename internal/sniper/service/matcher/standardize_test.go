package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizeConfig(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"ram-64g-ecc-2133-24sk502", "ram-64g"},
		{"ram-64g-ecc-2133-25skb01", "ram-64g"},
		{"RAM-64G-ECC-2133-24SKA01 ", "ram-64g"},
		{"ram-32g-noecc-2400-24rise012", "ram-32g"},
		{"ram-128g-ecc-4800-25sysle012", "ram-128g"},
		{"softraid-2x480ssd-24sk502", "softraid-2x480ssd"},
		{"softraid-2x4000sa-25skc01", "softraid-2x4000sa"},
		{"softraid-2x512nvme-24skle01-v1", "softraid-2x512nvme"},
		{"ram-64g-ecc-2133-gra", "ram-64g"},
		{"ram-64g-ddr5-5600", "ram-64g-ddr5"},
		{"ram-64g-xl2", "ram-64g-xl2"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, StandardizeConfig(tt.raw))
		})
	}
}

func TestStandardizeConfig_SuffixVariantsAgree(t *testing.T) {
	base := "ram-64g-ecc-2133"
	want := StandardizeConfig(base)
	for _, suffix := range []string{"-24sk502", "-25skb01", "-25skc01", "-24ska01", "-24rise", "-ks40", "-v1", "-sgp"} {
		assert.Equal(t, want, StandardizeConfig(base+suffix), suffix)
	}
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "64GB RAM", FormatMemoryDisplay("ram-64g-ecc-2133"))
	assert.Equal(t, "weird", FormatMemoryDisplay("weird"))
	assert.Equal(t, "2x 480GB SSD", FormatStorageDisplay("softraid-2x480ssd"))
	assert.Equal(t, "2x 512GB NVME", FormatStorageDisplay("softraid-2x512nvme-24sk"))
	assert.Equal(t, "hybrid", FormatStorageDisplay("hybrid"))
}
