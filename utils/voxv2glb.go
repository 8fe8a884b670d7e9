package utils

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/qmuntal/gltf"

	"github.com/voxelsplace/voxmesh/api"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

// RunVOXV2GLB meshes a .voxv volume and writes it as .glb.
func RunVOXV2GLB(inPath, outPath string, opts api.ExportOptions) error {
	vol, err := voxmesh.LoadVolume(inPath)
	if err != nil {
		return err
	}
	doc := api.VolumeDocument(vol, opts)
	if err := gltf.SaveBinary(doc, outPath); err != nil {
		return fmt.Errorf("failed to save GLB: %w", err)
	}
	logSaved(outPath, ".glb saved")
	return nil
}

// RunVOXPACK2GLB converts a .voxpack into a .glb with one node per entry.
func RunVOXPACK2GLB(ctx context.Context, inPackPath, outPath string, opts api.ExportOptions) error {
	data, err := os.ReadFile(inPackPath)
	if err != nil {
		return err
	}
	pack, _, err := voxmesh.UnmarshalPack(data)
	if err != nil {
		return err
	}
	doc, err := api.PackDocument(ctx, pack, opts)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, outPath); err != nil {
		return fmt.Errorf("failed to save GLB: %w", err)
	}
	logSaved(outPath, ".glb saved")
	return nil
}

func logSaved(path, what string) {
	if fi, err := os.Stat(path); err == nil {
		log.Printf("%s (%d bytes)", what, fi.Size())
	} else {
		log.Print(what)
	}
}
