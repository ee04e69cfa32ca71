package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// 型号/系列后缀，按顺序剥离。新的命名出现时在这里追加。
var modelSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`-\d+skl[a-e]\d{2}(-v\d+)?`), // -24sklea01, -24sklea01-v1
	regexp.MustCompile(`-\d+sk\d+`),                 // -24sk502
	regexp.MustCompile(`-\d+rise\d*`),               // -24rise012
	regexp.MustCompile(`-\d+sys\w*`),                // -24sysgame01
	regexp.MustCompile(`-\d+risegame\d*`),
	regexp.MustCompile(`-\d+risestor`),
	regexp.MustCompile(`-\d+skgame\d*`),
	regexp.MustCompile(`-\d+ska\d*`), // -24ska01
	regexp.MustCompile(`-\d+skstor\d*`),
	regexp.MustCompile(`-\d+sysstor`),
	regexp.MustCompile(`game\d*`),
	regexp.MustCompile(`stor\d*`),
	regexp.MustCompile(`-ks\d+`), // -ks40
	regexp.MustCompile(`-rise`),
	regexp.MustCompile(`-\d+sysle\d+`), // -25sysle012
	regexp.MustCompile(`-\d+skb\d+`),   // -25skb01
	regexp.MustCompile(`-\d+skc\d+`),
	regexp.MustCompile(`-\d+sk\d+b`), // -24sk60b
	regexp.MustCompile(`-v\d+`),
	regexp.MustCompile(`-[a-z]{3}$`), // 机房后缀 -gra, -sgp
}

var (
	memorySpeed    = regexp.MustCompile(`-(no)?ecc-\d+`)
	diskInterface  = regexp.MustCompile(`-(sas|sa|ssd|nvme)$`)
	trailingNumber = regexp.MustCompile(`-\d{4,5}$`)

	memoryDisplay  = regexp.MustCompile(`(?i)(\d+)g`)
	storageDisplay = regexp.MustCompile(`(?i)(\d+)x(\d+)(ssd|nvme|hdd)`)
)

// StandardizeConfig reduces a vendor option code to the part that identifies
// the hardware component. Suffixes it does not recognise are kept.
func StandardizeConfig(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	for _, re := range modelSuffixes {
		s = re.ReplaceAllString(s, "")
	}
	s = memorySpeed.ReplaceAllString(s, "")
	s = diskInterface.ReplaceAllString(s, "")
	s = trailingNumber.ReplaceAllString(s, "")
	return s
}

// Fingerprint 是标准化后的 (内存, 存储)
type Fingerprint struct {
	Memory  string `json:"memory"`
	Storage string `json:"storage"`
}

func NewFingerprint(memory, storage string) Fingerprint {
	return Fingerprint{Memory: StandardizeConfig(memory), Storage: StandardizeConfig(storage)}
}

func (f Fingerprint) String() string {
	return f.Memory + " + " + f.Storage
}

// FormatMemoryDisplay turns ram-64g-... into "64GB RAM".
func FormatMemoryDisplay(code string) string {
	if m := memoryDisplay.FindStringSubmatch(code); m != nil {
		return m[1] + "GB RAM"
	}
	return code
}

// FormatStorageDisplay turns softraid-2x480ssd into "2x 480GB SSD".
func FormatStorageDisplay(code string) string {
	if m := storageDisplay.FindStringSubmatch(code); m != nil {
		return fmt.Sprintf("%sx %sGB %s", m[1], m[2], strings.ToUpper(m[3]))
	}
	return code
}
