package pipeline

// Schema describes the columns of a prepared matrix.
type Schema struct {
	FeatureNames []string
	Target       string
}

func (s Schema) Len() int { return len(s.FeatureNames) }

// Index returns the column of name, or -1.
func (s Schema) Index(name string) int {
	for i, n := range s.FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}
