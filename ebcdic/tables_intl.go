package ebcdic

// The non-Latin-1 pages below share the control block, the invariant
// punctuation and the A-Z/a-z/0-9 positions with 037 unless listed.

// cp870 is Latin-2 multilingual (Czech, Hungarian, Polish, Romanian, Slovak, Slovenian, Croatian)
var cp870 = overlay{
	0x44: 'ţ', 0x46: 'ă', 0x47: 'č', 0x49: 'ć', 0x4A: '[', 0x4F: '!',
	0x52: 'ę', 0x54: 'ů', 0x57: 'ľ', 0x58: 'ĺ', 0x5A: ']', 0x5F: '^',
	0x64: '˝', 0x66: 'Ă', 0x67: 'Č', 0x69: 'Ć', 0x6A: '|',
	0x70: 'ˇ', 0x72: 'Ę', 0x74: 'Ů', 0x77: 'Ľ', 0x78: 'Ĺ',
	0x80: '˘', 0x8A: 'ś', 0x8B: 'ň', 0x8C: 'đ', 0x8E: 'ř', 0x8F: 'ş',
	0x9A: 'ł', 0x9B: 'ń', 0x9C: 'š', 0x9E: '˛',
	0xA0: 'ą', 0xAA: 'Ś', 0xAB: 'Ň', 0xAC: 'Đ', 0xAE: 'Ř', 0xAF: 'Ş',
	0xB0: '˙', 0xB1: 'Ą', 0xB2: 'ż', 0xB3: 'Ţ', 0xB4: 'Ż', 0xB6: 'ž',
	0xB7: 'ź', 0xB8: 'Ž', 0xB9: 'Ź', 0xBA: 'Ł', 0xBB: 'Ń', 0xBC: 'Š',
	0xCD: 'ŕ', 0xCF: 'ő',
	0xDA: 'Ě', 0xDB: 'ű', 0xDD: 'ť', 0xDF: 'ě',
	0xEA: 'ď', 0xED: 'Ŕ', 0xEF: 'Ő',
	0xFA: 'Ď', 0xFB: 'Ű', 0xFD: 'Ť',
}

// cp875 is Greek
var cp875 = overlay{
	0x41: 'Α', 0x42: 'Β', 0x43: 'Γ', 0x44: 'Δ', 0x45: 'Ε', 0x46: 'Ζ',
	0x47: 'Η', 0x48: 'Θ', 0x49: 'Ι', 0x4A: '[', 0x4F: '!',
	0x51: 'Κ', 0x52: 'Λ', 0x53: 'Μ', 0x54: 'Ν', 0x55: 'Ξ', 0x56: 'Ο',
	0x57: 'Π', 0x58: 'Ρ', 0x59: 'Σ', 0x5A: ']', 0x5F: '^',
	0x62: 'Τ', 0x63: 'Υ', 0x64: 'Φ', 0x65: 'Χ', 0x66: 'Ψ', 0x67: 'Ω',
	0x68: 'Ϊ', 0x69: 'Ϋ', 0x6A: '|',
	0x70: '¨', 0x71: 'Ά', 0x72: 'Έ', 0x73: 'Ή', 0x74: 0x00A0, 0x75: 'Ί',
	0x76: 'Ό', 0x77: 'Ύ', 0x78: 'Ώ',
	0x80: '΅', 0x8A: 'α', 0x8B: 'β', 0x8C: 'γ', 0x8D: 'δ', 0x8E: 'ε', 0x8F: 'ζ',
	0x90: '°', 0x9A: 'η', 0x9B: 'θ', 0x9C: 'ι', 0x9D: 'κ', 0x9E: 'λ', 0x9F: 'μ',
	0xA0: '´', 0xAA: 'ν', 0xAB: 'ξ', 0xAC: 'ο', 0xAD: 'π', 0xAE: 'ρ', 0xAF: 'σ',
	0xB0: '£', 0xB1: 'ά', 0xB2: 'έ', 0xB3: 'ή', 0xB4: 'ϊ', 0xB5: 'ί',
	0xB6: 'ό', 0xB7: 'ύ', 0xB8: 'ϋ', 0xB9: 'ώ', 0xBA: 'ς', 0xBB: 'τ',
	0xBC: 'υ', 0xBD: 'φ', 0xBE: 'χ', 0xBF: 'ψ',
	0xCB: 'ω', 0xCC: 'ΐ', 0xCD: 'ΰ', 0xCE: '‘', 0xCF: '―',
	0xDA: '±', 0xDB: '½', 0xDC: Substitute, 0xDD: 0x0387, 0xDE: '’', 0xDF: '¦',
	0xE1: Substitute, 0xEA: '²', 0xEB: '§', 0xEC: Substitute, 0xED: Substitute,
	0xEE: '«', 0xEF: '¬',
	0xFA: '³', 0xFB: '©', 0xFC: Substitute, 0xFD: Substitute, 0xFE: '»',
}

// cp1025 is Cyrillic multilingual
var cp1025 = overlay{
	0x42: 'ђ', 0x43: 'ѓ', 0x44: 'ё', 0x45: 'є', 0x46: 'ѕ', 0x47: 'і',
	0x48: 'ї', 0x49: 'ј', 0x4A: '[', 0x4F: '!',
	0x51: 'љ', 0x52: 'њ', 0x53: 'ћ', 0x54: 'ќ', 0x55: 'ў', 0x56: 'џ',
	0x57: 'Ъ', 0x58: '№', 0x59: 'Ђ', 0x5A: ']', 0x5F: '^',
	0x62: 'Ѓ', 0x63: 'Ё', 0x64: 'Є', 0x65: 'Ѕ', 0x66: 'І', 0x67: 'Ї',
	0x68: 'Ј', 0x69: 'Љ', 0x6A: '|',
	0x70: 'Њ', 0x71: 'Ћ', 0x72: 'Ќ', 0x73: 0x00AD, 0x74: 'Ў', 0x75: 'Џ',
	0x76: 'ю', 0x77: 'а', 0x78: 'б',
	0x80: 'ц', 0x8A: 'д', 0x8B: 'е', 0x8C: 'ф', 0x8D: 'г', 0x8E: 'х', 0x8F: 'и',
	0x90: 'й', 0x9A: 'к', 0x9B: 'л', 0x9C: 'м', 0x9D: 'н', 0x9E: 'о', 0x9F: 'п',
	0xA0: 'я', 0xAA: 'р', 0xAB: 'с', 0xAC: 'т', 0xAD: 'у', 0xAE: 'ж', 0xAF: 'в',
	0xB0: 'ь', 0xB1: 'ы', 0xB2: 'з', 0xB3: 'ш', 0xB4: 'э', 0xB5: 'щ',
	0xB6: 'ч', 0xB7: 'ъ', 0xB8: 'Ю', 0xB9: 'А', 0xBA: 'Б', 0xBB: 'Ц',
	0xBC: 'Д', 0xBD: 'Е', 0xBE: 'Ф', 0xBF: 'Г',
	0xCA: 'Х', 0xCB: 'И', 0xCC: 'Й', 0xCD: 'К', 0xCE: 'Л', 0xCF: 'М',
	0xDA: 'Н', 0xDB: 'О', 0xDC: 'П', 0xDD: 'Я', 0xDE: 'Р', 0xDF: 'С',
	0xE1: '§', 0xEA: 'Т', 0xEB: 'У', 0xEC: 'Ж', 0xED: 'В', 0xEE: 'Ь', 0xEF: 'Ы',
	0xFA: 'З', 0xFB: 'Ш', 0xFC: 'Э', 0xFD: 'Щ', 0xFE: 'Ч',
}

// cp424 is Hebrew
var cp424 = overlay{
	0x41: 'א', 0x42: 'ב', 0x43: 'ג', 0x44: 'ד', 0x45: 'ה', 0x46: 'ו',
	0x47: 'ז', 0x48: 'ח', 0x49: 'ט',
	0x51: 'י', 0x52: 'ך', 0x53: 'כ', 0x54: 'ל', 0x55: 'ם', 0x56: 'מ',
	0x57: 'ן', 0x58: 'נ', 0x59: 'ס',
	0x62: 'ע', 0x63: 'ף', 0x64: 'פ', 0x65: 'ץ', 0x66: 'צ', 0x67: 'ק',
	0x68: 'ר', 0x69: 'ש',
	0x70: Substitute, 0x71: 'ת', 0x72: Substitute, 0x73: Substitute, 0x74: 0x00A0,
	0x75: Substitute, 0x76: Substitute, 0x77: Substitute, 0x78: '‗',
	0x80: Substitute, 0x8C: Substitute, 0x8D: Substitute, 0x8E: Substitute,
	0x9A: Substitute, 0x9B: Substitute, 0x9C: Substitute, 0x9D: '¸', 0x9E: Substitute,
	0x9F: '¤',
	0xAA: Substitute, 0xAB: Substitute, 0xAC: Substitute, 0xAD: Substitute, 0xAE: Substitute,
	0xCB: Substitute, 0xCC: Substitute, 0xCD: Substitute, 0xCE: Substitute, 0xCF: Substitute,
	0xDB: Substitute, 0xDC: Substitute, 0xDD: Substitute, 0xDE: Substitute, 0xDF: Substitute,
	0xEB: Substitute, 0xEC: Substitute, 0xED: Substitute, 0xEE: Substitute, 0xEF: Substitute,
	0xFB: Substitute, 0xFC: Substitute, 0xFD: Substitute, 0xFE: Substitute,
}

// cp290 is the Japanese Katakana single-byte page used as the SBCS half of CCSID 930
var cp290 = overlay{
	0x41: '｡', 0x42: '｢', 0x43: '｣', 0x44: '､', 0x45: '･', 0x46: 'ｦ',
	0x47: 'ｧ', 0x48: 'ｨ', 0x49: 'ｩ', 0x4A: '£',
	0x51: 'ｪ', 0x52: 'ｫ', 0x53: 'ｬ', 0x54: 'ｭ', 0x55: 'ｮ', 0x56: 'ｯ',
	0x57: Substitute, 0x58: 'ｰ', 0x59: Substitute, 0x5B: '¥',
	0x62: 'a', 0x63: 'b', 0x64: 'c', 0x65: 'd', 0x66: 'e', 0x67: 'f',
	0x68: 'g', 0x69: 'h', 0x6A: Substitute,
	0x70: '[', 0x71: 'i', 0x72: 'j', 0x73: 'k', 0x74: 'l', 0x75: 'm',
	0x76: 'n', 0x77: 'o', 0x78: 'p',
	0x80: ']', 0x81: 'ｱ', 0x82: 'ｲ', 0x83: 'ｳ', 0x84: 'ｴ', 0x85: 'ｵ',
	0x86: 'ｶ', 0x87: 'ｷ', 0x88: 'ｸ', 0x89: 'ｹ', 0x8A: 'ｺ', 0x8B: 'q',
	0x8C: 'ｻ', 0x8D: 'ｼ', 0x8E: 'ｽ', 0x8F: 'ｾ',
	0x90: 'ｿ', 0x91: 'ﾀ', 0x92: 'ﾁ', 0x93: 'ﾂ', 0x94: 'ﾃ', 0x95: 'ﾄ',
	0x96: 'ﾅ', 0x97: 'ﾆ', 0x98: 'ﾇ', 0x99: 'ﾈ', 0x9A: 'ﾉ', 0x9B: 'r',
	0x9C: Substitute, 0x9D: 'ﾊ', 0x9E: 'ﾋ', 0x9F: 'ﾌ',
	0xA0: '~', 0xA1: '‾', 0xA2: 'ﾍ', 0xA3: 'ﾎ', 0xA4: 'ﾏ', 0xA5: 'ﾐ',
	0xA6: 'ﾑ', 0xA7: 'ﾒ', 0xA8: 'ﾓ', 0xA9: 'ﾔ', 0xAA: 'ﾕ', 0xAB: 's',
	0xAC: 'ﾖ', 0xAD: 'ﾗ', 0xAE: 'ﾘ', 0xAF: 'ﾙ',
	0xB0: '^', 0xB1: '¢', 0xB2: '\\', 0xB3: 't', 0xB4: 'u', 0xB5: 'v',
	0xB6: 'w', 0xB7: 'x', 0xB8: 'y', 0xB9: 'z', 0xBA: 'ﾚ', 0xBB: 'ﾛ',
	0xBC: 'ﾜ', 0xBD: 'ﾝ', 0xBE: 'ﾞ', 0xBF: 'ﾟ',
	0xCA: Substitute, 0xCB: Substitute, 0xCC: Substitute, 0xCD: Substitute, 0xCE: Substitute, 0xCF: Substitute,
	0xDA: Substitute, 0xDB: Substitute, 0xDC: Substitute, 0xDD: Substitute, 0xDE: Substitute, 0xDF: Substitute,
	0xE0: '$', 0xE1: Substitute,
	0xEA: Substitute, 0xEB: Substitute, 0xEC: Substitute, 0xED: Substitute, 0xEE: Substitute, 0xEF: Substitute,
	0xFA: Substitute, 0xFB: Substitute, 0xFC: Substitute, 0xFD: Substitute, 0xFE: Substitute,
}
