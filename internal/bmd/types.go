package bmd

// Model holds everything parsed from one BMD file.
type Model struct {
	Name    string
	Version byte
	Meshes  []Mesh
	Actions []Action
	Bones   []Bone
}

// Mesh holds the geometry summary of one sub-mesh. Vertex data is skipped;
// only the counts and texture reference are kept.
type Mesh struct {
	NumVerts   int
	NumNormals int
	NumUVs     int
	NumTris    int
	TexPath    string // texture reference from BMD (e.g. "sword04.jpg")
}

// Action is one animation clip. Every non-dummy bone carries NumKeys keys for it.
type Action struct {
	NumKeys       int
	LockPositions bool
}

// Key is one bone keyframe.
type Key struct {
	Position [3]float64
	Rotation [3]float64 // Euler XYZ radians
}

// Bone holds one node of the skeleton hierarchy and its keys per action.
type Bone struct {
	Name    string
	Parent  int
	IsDummy bool
	Keys    [][]Key // Keys[action][key]
}

// KeyAt returns the bone's key for (action, key), clamping key into the
// action's range. ok is false when the bone has no keys for the action.
func (b *Bone) KeyAt(action, key int) (Key, bool) {
	if action < 0 || action >= len(b.Keys) || len(b.Keys[action]) == 0 {
		return Key{}, false
	}
	keys := b.Keys[action]
	if key < 0 {
		key = 0
	}
	if key >= len(keys) {
		key = len(keys) - 1
	}
	return keys[key], true
}
