package compiledb

import "strings"

// file extensions associated with C, C++, Objective-C, Objective-C++
// https://github.com/github/linguist/blob/master/lib/linguist/languages.yml
var sourceExtensions = map[string]struct{}{
	"c": {}, "cats": {}, "h": {}, "idc": {},
	"cpp": {}, "c++": {}, "cc": {}, "cp": {},
	"cppm": {}, "cxx": {}, "h++": {}, "hh": {},
	"hpp": {}, "hxx": {}, "inc": {}, "inl": {},
	"ino": {}, "ipp": {}, "ixx": {}, "re": {},
	"tcc": {}, "tpp": {}, "m": {}, "mm": {},
}

// Recogniser classifies argv tokens as compilation sources. The test is
// purely syntactic: the substring after the token's final dot decides, with
// no case folding and no filesystem access.
type Recogniser struct {
	extensions map[string]struct{}
}

// NewRecogniser builds a recogniser for the standard C-family extension set
// plus any extra extensions (given without the leading dot).
func NewRecogniser(extra ...string) *Recogniser {
	if len(extra) == 0 {
		return &Recogniser{extensions: sourceExtensions}
	}
	extensions := make(map[string]struct{}, len(sourceExtensions)+len(extra))
	for ext := range sourceExtensions {
		extensions[ext] = struct{}{}
	}
	for _, ext := range extra {
		extensions[strings.TrimPrefix(ext, ".")] = struct{}{}
	}
	return &Recogniser{extensions: extensions}
}

// IsSource reports whether the argument token names a source file.
func (r *Recogniser) IsSource(argument string) bool {
	dot := strings.LastIndexByte(argument, '.')
	if dot < 0 {
		return false
	}
	_, ok := r.extensions[argument[dot+1:]]
	return ok
}
