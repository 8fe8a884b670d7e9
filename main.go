//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/voxelsplace/voxmesh/api"
	"github.com/voxelsplace/voxmesh/palette"
	"github.com/voxelsplace/voxmesh/utils"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

func usage() {
	fmt.Println("Usage: voxmesh <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  mesh input.voxv output.glb [greedy|naive]       (mesh a volume and export .glb)")
	fmt.Println("  stats input.voxv                                (compare naive and greedy face counts)")
	fmt.Println("  pack output.voxpack input1.voxv [input2.voxv ...] (pack volumes, zstd compressed)")
	fmt.Println("  unpack input.voxpack output_dir                 (unpack .voxpack into .voxv files)")
	fmt.Println("  pack2glb input.voxpack output.glb [greedy|naive] (one node per entry)")
	fmt.Println("  gennoise <x> <y> <z> <percentage> <amount> <output_dir> [seed]")
}

func fail(err error) {
	log.Printf("Error: %v", err)
	os.Exit(1)
}

func exportOptions(args []string) api.ExportOptions {
	opts := api.DefaultExportOptions()
	if len(args) > 0 {
		mode, err := api.ParseMode(args[0])
		if err != nil {
			fail(err)
		}
		opts.Mode = mode
	}
	return opts
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("voxmesh: ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "mesh":
		if len(args) < 2 || len(args) > 3 {
			usage()
			os.Exit(1)
		}
		err = utils.RunVOXV2GLB(args[0], args[1], exportOptions(args[2:]))
	case "stats":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		err = utils.RunStats(os.Stdout, args[0], palette.DefaultOptions())
	case "pack":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		err = utils.CreatePack(args[1:], args[0], voxmesh.PackCompZstd)
	case "unpack":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		err = utils.UnpackToDir(args[0], args[1])
	case "pack2glb":
		if len(args) < 2 || len(args) > 3 {
			usage()
			os.Exit(1)
		}
		err = utils.RunVOXPACK2GLB(ctx, args[0], args[1], exportOptions(args[2:]))
	case "gennoise":
		if len(args) != 6 && len(args) != 7 {
			usage()
			os.Exit(1)
		}
		var dims [3]int
		var perc float64
		var amount int
		seed := int64(1)
		for i := range dims {
			if _, err := fmt.Sscan(args[i], &dims[i]); err != nil {
				fail(err)
			}
		}
		if _, err := fmt.Sscan(args[3], &perc); err != nil {
			fail(err)
		}
		if _, err := fmt.Sscan(args[4], &amount); err != nil {
			fail(err)
		}
		if len(args) == 7 {
			if _, err := fmt.Sscan(args[6], &seed); err != nil {
				fail(err)
			}
		}
		err = utils.RunGenerateNoise(dims, perc, 63, amount, seed, args[5])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
	log.Print("Operation completed!")
}
