// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

// KeyFromRune returns the Key that produces r on a US
// keyboard layout, and whether r requires shift.
// Runes that have no such key map to KeyUnknown.
func KeyFromRune(r rune) (Key, Modifier) {
	if r >= 'A' && r <= 'Z' {
		return runemap[r-'A'+'a'], ModShift
	}
	if r < 0 || int(r) >= len(runemap) {
		return KeyUnknown, 0
	}
	if k := shiftmap[r]; k != KeyUnknown {
		return k, ModShift
	}
	return runemap[r], 0
}

var runemap = [128]Key{
	'`': KeyGrave, '1': Key1, '2': Key2, '3': Key3, '4': Key4,
	'5': Key5, '6': Key6, '7': Key7, '8': Key8, '9': Key9,
	'0': Key0, '-': KeyMinus, '=': KeyEqual, '\b': KeyBackspace,
	'\t': KeyTab, 'q': KeyQ, 'w': KeyW, 'e': KeyE, 'r': KeyR,
	't': KeyT, 'y': KeyY, 'u': KeyU, 'i': KeyI, 'o': KeyO,
	'p': KeyP, '[': KeyLBracket, ']': KeyRBracket, '\\': KeyBackslash,
	'a': KeyA, 's': KeyS, 'd': KeyD, 'f': KeyF, 'g': KeyG,
	'h': KeyH, 'j': KeyJ, 'k': KeyK, 'l': KeyL, ';': KeySemicolon,
	'\'': KeyApostrophe, '\r': KeyReturn, '\n': KeyReturn,
	'z': KeyZ, 'x': KeyX, 'c': KeyC, 'v': KeyV, 'b': KeyB,
	'n': KeyN, 'm': KeyM, ',': KeyComma, '.': KeyDot,
	'/': KeySlash, ' ': KeySpace, 0x1b: KeyEsc, 0x7f: KeyDelete,
}

var shiftmap = [128]Key{
	'~': KeyGrave, '!': Key1, '@': Key2, '#': Key3, '$': Key4,
	'%': Key5, '^': Key6, '&': Key7, '*': Key8, '(': Key9,
	')': Key0, '_': KeyMinus, '+': KeyEqual, '{': KeyLBracket,
	'}': KeyRBracket, '|': KeyBackslash, ':': KeySemicolon,
	'"': KeyApostrophe, '<': KeyComma, '>': KeyDot, '?': KeySlash,
}
