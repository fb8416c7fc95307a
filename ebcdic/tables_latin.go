package ebcdic

// cp037 is CCSID 37 (USA/Canada), the base table every Latin overlay is
// expressed against.
var cp037 = [256]rune{
	0x0000, 0x0001, 0x0002, 0x0003, 0x009C, 0x0009, 0x0086, 0x007F, 0x0097, 0x008D, 0x008E, 0x000B, 0x000C, 0x000D, 0x000E, 0x000F,
	0x0010, 0x0011, 0x0012, 0x0013, 0x009D, 0x0085, 0x0008, 0x0087, 0x0018, 0x0019, 0x0092, 0x008F, 0x001C, 0x001D, 0x001E, 0x001F,
	0x0080, 0x0081, 0x0082, 0x0083, 0x0084, 0x000A, 0x0017, 0x001B, 0x0088, 0x0089, 0x008A, 0x008B, 0x008C, 0x0005, 0x0006, 0x0007,
	0x0090, 0x0091, 0x0016, 0x0093, 0x0094, 0x0095, 0x0096, 0x0004, 0x0098, 0x0099, 0x009A, 0x009B, 0x0014, 0x0015, 0x009E, 0x001A,
	' ', 0x00A0, 'â', 'ä', 'à', 'á', 'ã', 'å', 'ç', 'ñ', '¢', '.', '<', '(', '+', '|',
	'&', 'é', 'ê', 'ë', 'è', 'í', 'î', 'ï', 'ì', 'ß', '!', '$', '*', ')', ';', '¬',
	'-', '/', 'Â', 'Ä', 'À', 'Á', 'Ã', 'Å', 'Ç', 'Ñ', '¦', ',', '%', '_', '>', '?',
	'ø', 'É', 'Ê', 'Ë', 'È', 'Í', 'Î', 'Ï', 'Ì', '`', ':', '#', '@', '\'', '=', '"',
	'Ø', 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', '«', '»', 'ð', 'ý', 'þ', '±',
	'°', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 'ª', 'º', 'æ', '¸', 'Æ', '¤',
	'µ', '~', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z', '¡', '¿', 'Ð', 'Ý', 'Þ', '®',
	'^', '£', '¥', '·', '©', '§', '¶', '¼', '½', '¾', '[', ']', '¯', '¨', '´', '×',
	'{', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 0x00AD, 'ô', 'ö', 'ò', 'ó', 'õ',
	'}', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', '¹', 'û', 'ü', 'ù', 'ú', 'ÿ',
	'\\', '÷', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', '²', 'Ô', 'Ö', 'Ò', 'Ó', 'Õ',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '³', 'Û', 'Ü', 'Ù', 'Ú', 0x009F,
}

// overlay describes a code page as the positions where it differs from a base page
type overlay map[byte]rune

func applyOverlay(base [256]rune, layers ...overlay) [256]rune {
	table := base
	for _, layer := range layers {
		for position, r := range layer {
			table[position] = r
		}
	}

	return table
}

// euro replaces the international currency sign with the euro sign, which is
// the only difference between the 114x pages and their 0xx ancestors.
var euro = overlay{0x9F: '€'}

var cp500 = overlay{
	0x4A: '[', 0x4F: '!', 0x5A: ']', 0x5F: '^',
	0xB0: '¢', 0xBA: '¬', 0xBB: '|',
}

var cp273 = overlay{
	0x43: '{', 0x4A: 'Ä', 0x4F: '!', 0x59: '~', 0x5A: 'Ü', 0x5F: '^',
	0x63: '[', 0x6A: 'ö', 0x7C: '§', 0xA1: 'ß', 0xB0: '¢', 0xB5: '@',
	0xBA: '¬', 0xBB: '|', 0xBC: '‾', 0xC0: 'ä', 0xCC: '¦', 0xD0: 'ü',
	0xDC: '}', 0xE0: 'Ö', 0xEC: '\\', 0xFC: ']',
}

var cp277 = overlay{
	0x47: '}', 0x4A: '#', 0x4F: '!', 0x5A: '¤', 0x5B: 'Å', 0x5F: '^',
	0x67: '$', 0x6A: 'ø', 0x70: '¦', 0x7B: 'Æ', 0x7C: 'Ø', 0x80: '@',
	0x9C: '{', 0x9E: '[', 0x9F: ']', 0xA1: 'ü', 0xB0: '¢', 0xBA: '¬',
	0xBB: '|', 0xC0: 'æ', 0xD0: 'å', 0xDC: '~',
}

var cp278 = overlay{
	0x43: '{', 0x47: '}', 0x4A: '§', 0x4F: '!', 0x51: '`', 0x5A: '¤',
	0x5B: 'Å', 0x5F: '^', 0x63: '#', 0x67: '$', 0x6A: 'ö', 0x71: '\\',
	0x79: 'é', 0x7B: 'Ä', 0x7C: 'Ö', 0x9F: ']', 0xA1: 'ü', 0xB0: '¢',
	0xB5: '[', 0xBA: '¬', 0xBB: '|', 0xC0: 'ä', 0xCC: '¦', 0xD0: 'å',
	0xDC: '~', 0xE0: 'É', 0xEC: '@',
}

var cp280 = overlay{
	0x44: '{', 0x48: '\\', 0x4A: '°', 0x4F: '!', 0x51: ']', 0x54: '}',
	0x58: '~', 0x5A: 'é', 0x5F: '^', 0x6A: 'ò', 0x79: 'ù', 0x7B: '£',
	0x7C: '§', 0x90: '[', 0xA1: 'ì', 0xB0: '¢', 0xB1: '#', 0xB5: '@',
	0xBA: '¬', 0xBB: '|', 0xC0: 'à', 0xCD: '¦', 0xD0: 'è', 0xDD: '`',
	0xE0: 'ç',
}

var cp284 = overlay{
	0x49: '¦', 0x4A: '[', 0x5A: ']', 0x69: '#', 0x6A: 'ñ', 0x7B: 'Ñ',
	0xA1: '¨', 0xB0: '¢', 0xBA: '^', 0xBB: '!', 0xBD: '~',
}

var cp285 = overlay{
	0x4A: '$', 0x5B: '£', 0xA1: '‾', 0xB0: '¢', 0xB1: '[', 0xBA: '^',
	0xBC: '~',
}

var cp297 = overlay{
	0x44: '@', 0x48: '\\', 0x4A: '°', 0x4F: '!', 0x51: '{', 0x54: '}',
	0x5A: '§', 0x5F: '^', 0x6A: 'ù', 0x79: 'µ', 0x7B: '£', 0x7C: 'à',
	0x90: '[', 0xA0: '`', 0xA1: '¨', 0xB0: '¢', 0xB1: '#', 0xB5: ']',
	0xBA: '¬', 0xBB: '|', 0xBD: '~', 0xC0: 'é', 0xD0: 'è', 0xDD: '¦',
	0xE0: 'ç',
}

var cp871 = overlay{
	0x4A: 'Þ', 0x4F: '!', 0x5A: 'Æ', 0x5F: 'Ö', 0x79: 'ð', 0x7C: 'Ð',
	0x8C: '`', 0x8E: '{', 0x9C: '}', 0x9E: ']', 0xA1: 'ö', 0xAC: '@',
	0xAE: '[', 0xB0: '¢', 0xBA: '¬', 0xBB: '|', 0xBE: '\\', 0xC0: 'þ',
	0xCC: '~', 0xD0: 'æ', 0xE0: '´', 0xEC: '^',
}

var cp1026 = overlay{
	0x48: '{', 0x4A: 'Ç', 0x4F: '!', 0x5A: 'Ğ', 0x5B: 'İ', 0x5F: '^',
	0x68: '[', 0x6A: 'ş', 0x79: 'ı', 0x7B: 'Ö', 0x7C: 'Ş', 0x7F: 'Ü',
	0x8C: '}', 0x8D: '`', 0x8E: '¦', 0xA1: 'ö', 0xAC: ']', 0xAD: '$',
	0xAE: '@', 0xB0: '¢', 0xBA: '¬', 0xBB: '|', 0xC0: 'ç', 0xCC: '~',
	0xD0: 'ğ', 0xDC: '\\', 0xE0: 'ü', 0xEC: '#', 0xFC: '"',
}

// cp1112 (Baltic) is expressed against 037, cp1122 (Estonian) against 278
var cp1112 = overlay{
	0x42: 'š', 0x44: 'ą', 0x45: 'į', 0x46: 'ū', 0x48: 'ē', 0x49: 'ž',
	0x52: 'ę', 0x53: 'ė', 0x54: 'č', 0x55: 'ų', 0x56: '„', 0x57: '“',
	0x58: 'ģ', 0x62: 'Š', 0x64: 'Ą', 0x65: 'Į', 0x66: 'Ū', 0x68: 'Ē',
	0x69: 'Ž', 0x72: 'Ę', 0x73: 'Ė', 0x74: 'Č', 0x75: 'Ų', 0x76: 'Ī',
	0x77: 'Ļ', 0x78: 'Ģ', 0x8C: 'ā', 0x8D: 'ż', 0x8E: 'ń', 0x9A: 'Ŗ',
	0x9B: 'ŗ', 0x9D: 'ķ', 0xAA: '”', 0xAB: 'ź', 0xAC: 'Ā', 0xAD: 'Ż',
	0xAE: 'Ń', 0xB2: 'ī', 0xBC: 'Ź', 0xBD: 'Ķ', 0xBE: 'ļ', 0xCB: 'ō',
	0xCD: 'ņ', 0xDB: 'ć', 0xDD: 'ł', 0xDE: 'ś', 0xDF: '’', 0xEB: 'Ō',
	0xED: 'Ņ', 0xFB: 'Ć', 0xFD: 'Ł', 0xFE: 'Ś',
}

var cp1122 = overlay{
	0x8C: 'š', 0x8E: 'ž', 0xAC: 'Š', 0xAE: 'Ž',
}
