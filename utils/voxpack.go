package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/voxelsplace/voxmesh/voxmesh"
)

// CreatePack reads .voxv files and writes a .voxpack to outputFile.
func CreatePack(inputFiles []string, outputFile string, comp voxmesh.PackCompression) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no .voxv files provided")
	}
	// entries are stored under their base name
	if err := voxmesh.CheckNames(inputFiles); err != nil {
		return err
	}
	type item struct {
		data []byte
		err  error
	}
	items := make([]item, len(inputFiles))

	var wg sync.WaitGroup
	for i, path := range inputFiles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := os.ReadFile(path)
			if err == nil {
				_, _, err = voxmesh.ParseHeader(b)
			}
			items[i] = item{data: b, err: err}
		}()
	}
	wg.Wait()

	pack := &voxmesh.Pack{Entries: make([]voxmesh.PackEntry, len(items))}
	for i, it := range items {
		if it.err != nil {
			return fmt.Errorf("%s: %w", inputFiles[i], it.err)
		}
		pack.Entries[i] = voxmesh.PackEntry{Name: filepath.Base(inputFiles[i]), Data: it.data}
	}
	start := time.Now()
	data, err := pack.Marshal(comp)
	if err != nil {
		return err
	}
	log.Printf("packing %d volumes took %d ms", len(pack.Entries), time.Since(start).Milliseconds())
	return os.WriteFile(outputFile, data, 0o644)
}

// UnpackToDir writes the .voxv entries of a .voxpack into outputDir.
func UnpackToDir(packFile, outputDir string) error {
	data, err := os.ReadFile(packFile)
	if err != nil {
		return err
	}
	pack, _, err := voxmesh.UnmarshalPack(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(pack.Entries))
	for _, e := range pack.Entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := os.WriteFile(filepath.Join(outputDir, filepath.Base(e.Name)), e.Data, 0o644); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}
