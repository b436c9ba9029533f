// Package keymap holds the human-readable names of the amiga keyboard codes.
package keymap

const (
	// CapsLock is the key code of the caps lock key.
	// The keyboard only sends it on key down, the 8th bit is the lamp state.
	CapsLock = 0x62
	// LastKey is the highest key code of an ordinary key (right amiga).
	// Codes above LastKey are controller status codes.
	LastKey = 0x67
)

// special (status) codes sent by the keyboard controller.
const (
	ResetWarning        = 0x78
	LostSync            = 0xf9
	BufferOverflow      = 0xfa
	ControllerFail      = 0xfb
	SelfTestFail        = 0xfc
	BeginPowerUpStream  = 0xfd
	EndPowerUpStream    = 0xfe
	Interrupt           = 0xff
	unknownSpecialName  = "(UNKNOWN)"
	notAvailableKeyName = "<N/A>"
)

// Keys maps the key codes 0x00..LastKey to the key name.
var Keys = [LastKey + 1]string{
	// 00       01       02        03         04       05       06       07
	"~`", "1!", "2\"", "3£", "4$", "5%", "6^", "7&",
	// 08       09       0A        0B         0C       0D       0E       0F
	"8*", "9(", "0)", "-_", "=+", "\\|", notAvailableKeyName, "KP 0",
	// 10       11       12        13         14       15       16       17
	"Q", "W", "E", "R", "T", "Y", "U", "I",
	// 18       19       1A        1B         1C       1D       1E       1F
	"O", "P", "[{", "]}", notAvailableKeyName, "KP 1", "KP 2", "KP 3",
	// 20       21       22        23         24       25       26       27
	"A", "S", "D", "F", "G", "H", "J", "K",
	// 28       29       2A        2B         2C       2D       2E       2F
	"L", ";:", "#@", "R_BLANK", notAvailableKeyName, "KP 4", "KP 5", "KP 6",
	// 30       31       32        33         34       35       36       37
	"L_BLANK", "Z", "X", "C", "V", "B", "N", "M",
	// 38       39       3A        3B         3C       3D       3E       3F
	",<", ".>", "/?", notAvailableKeyName, "KP .", "KP 7", "KP 8", "KP 9",
	// 40       41       42        43         44       45       46       47
	"SPACE", "BS", "TAB", "KP ENT", "RETURN", "ESC", "DEL", notAvailableKeyName,
	// 48       49       4A        4B         4C       4D       4E       4F
	notAvailableKeyName, notAvailableKeyName, "KP -", notAvailableKeyName, "UP", "DOWN", "RIGHT", "LEFT",
	// 50       51       52        53         54       55       56       57
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8",
	// 58       59       5A        5B         5C       5D       5E       5F
	"F9", "F10", "KP (", "KP )", "KP /", "KP *", "KP +", "HELP",
	// 60       61       62        63         64       65       66       67
	"L_SHIFT", "R_SHIFT", "CAPS", "CTRL", "L_ALT", "R_ALT", "L_AMIGA", "R_AMIGA",
}

var specials = map[uint8]string{
	ResetWarning:       "RESET WARNING",
	LostSync:           "LOST SYNC",
	BufferOverflow:     "OUTPUT BUFFER OVERFLOW",
	ControllerFail:     "CONTROLLER FAIL",
	SelfTestFail:       "SELF TEST FAIL",
	BeginPowerUpStream: "BEGIN POWER UP KEY STREAM",
	EndPowerUpStream:   "END POWER UP KEY STREAM",
	Interrupt:          "INTERRUPT",
}

// KeyName returns the name of key code.
// Codes above LastKey have no key name, they are status codes (see SpecialName).
func KeyName(code uint8) string {
	if code > LastKey {
		return notAvailableKeyName
	}
	return Keys[code]
}

// SpecialName returns the name of a controller status code.
func SpecialName(code uint8) string {
	if s, ok := specials[code]; ok {
		return s
	}
	return unknownSpecialName
}
