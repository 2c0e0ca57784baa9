package child

import "maps"

// Props is the data the parent shares with the child.
type Props map[string]any

// Merge copies every key of update into p, replacing existing values.
// Keys missing from update are kept.
func (p Props) Merge(update map[string]any) {
	maps.Copy(p, update)
}

// Clone returns a shallow copy.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	maps.Copy(out, p)
	return out
}
