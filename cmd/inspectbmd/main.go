package main

import (
	"flag"
	"fmt"
	"os"

	"anim-cfg-export/internal/bmd"
	"anim-cfg-export/internal/crypto"
	"anim-cfg-export/internal/mathutil"
	"anim-cfg-export/internal/skeleton"
)

func main() {
	leaKey := flag.String("lea-key", "", "Hex LEA-256 key for BMD v15 files")
	flag.Parse()

	var opts bmd.Options
	if *leaKey != "" {
		k, err := crypto.ParseLEAKey(*leaKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		opts.LEAKey = &k
	}

	for _, arg := range flag.Args() {
		m, err := bmd.Parse(arg, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		fmt.Printf("\n=== %s (%s, v%d, meshes=%d actions=%d bones=%d) ===\n",
			arg, m.Name, m.Version, len(m.Meshes), len(m.Actions), len(m.Bones))

		fmt.Println("--- ACTIONS ---")
		for i, a := range m.Actions {
			lock := ""
			if a.LockPositions {
				lock = " [LOCK]"
			}
			fmt.Printf("  Action[%d]: keys=%d%s\n", i, a.NumKeys, lock)
		}

		fmt.Println("--- BONES (bind pose) ---")
		bind := skeleton.BindPose(m.Bones)
		for i, b := range m.Bones {
			if b.IsDummy {
				fmt.Printf("  Bone[%d]: [DUMMY]\n", i)
				continue
			}
			p := mathutil.Translation(bind[i])
			fmt.Printf("  Bone[%d]: %q parent=%d pos=(%.2f,%.2f,%.2f)\n", i, b.Name, b.Parent, p[0], p[1], p[2])
		}
	}
}
