package skeleton

import (
	"anim-cfg-export/internal/bmd"
	"anim-cfg-export/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
)

// LocalMatrix returns a bone's local transform for (action, key): rotation
// from Euler + translation. Bones without keys for the action stay at identity.
func LocalMatrix(bone *bmd.Bone, action, key int) mathutil.Transform {
	k, ok := bone.KeyAt(action, key)
	if !ok {
		return mathutil.Identity()
	}
	q := mathutil.EulerToQuat(k.Rotation[0], k.Rotation[1], k.Rotation[2])
	pos := mgl64.Vec3{k.Position[0], k.Position[1], k.Position[2]}
	return mathutil.Compose(q, pos)
}

// WorldMatrices computes the world transform for each bone at (action, key).
// Returns a slice of 4×4 matrices indexed by bone index. Dummy bones stay at
// identity; a parent index that does not precede the bone is treated as root.
func WorldMatrices(bones []bmd.Bone, action, key int) []mathutil.Transform {
	worlds := make([]mathutil.Transform, len(bones))
	for i := range worlds {
		worlds[i] = mathutil.Identity()
	}

	for i := range bones {
		bone := &bones[i]
		if bone.IsDummy {
			continue
		}

		local := LocalMatrix(bone, action, key)

		// Chain with parent
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = worlds[bone.Parent].Mul4(local)
		} else {
			worlds[i] = local
		}
	}

	return worlds
}

// BindPose returns world matrices for the bind pose (action 0, key 0).
func BindPose(bones []bmd.Bone) []mathutil.Transform {
	return WorldMatrices(bones, 0, 0)
}
