package location

// Selection is the state of a cascading district/taluka/village picker.
// Changing a parent clears every child below it, so a settlement can never
// be left pointing at a sub-region it does not belong to.
type Selection struct {
	path Path
}

// NewSelection starts a picker from a stored path, e.g. when editing a
// profile.
func NewSelection(p Path) Selection {
	return Selection{path: p}
}

func (s *Selection) SetRegion(key string) {
	if key == s.path.Region {
		return
	}
	s.path = Path{Region: key}
}

func (s *Selection) SetSubRegion(key string) {
	if key == s.path.SubRegion {
		return
	}
	s.path.SubRegion = key
	s.path.Settlement = ""
}

func (s *Selection) SetSettlement(key string) {
	s.path.Settlement = key
}

// Path returns the current selection.
func (s Selection) Path() Path { return s.path }

// Complete reports whether all three levels are chosen.
func (s Selection) Complete() bool {
	return s.path.Region != "" && s.path.SubRegion != "" && s.path.Settlement != ""
}
