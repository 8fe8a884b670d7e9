//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/voxelsplace/voxmesh/api"
	"github.com/voxelsplace/voxmesh/voxmesh"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func exportOptions(args []js.Value) api.ExportOptions {
	opts := api.DefaultExportOptions()
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if mode, err := api.ParseMode(args[1].String()); err == nil {
			opts.Mode = mode
		}
	}
	return opts
}

func voxv2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing voxv bytes")
	}
	out, err := api.VolumeToGLB(bytesFromJS(args[0]), exportOptions(args))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func voxpack2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing voxpack bytes")
	}
	out, err := api.PackToGLB(context.Background(), bytesFromJS(args[0]), exportOptions(args))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func packVolumes(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing files object")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = bytesFromJS(filesObj.Get(k))
	}
	out, err := api.PackVolumes(files, voxmesh.PackCompZstd)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func unpackVoxpack(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	files, err := api.UnpackToMemory(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	result := js.Global().Get("Object").New()
	for name, b := range files {
		result.Set(name, bytesToJS(b))
	}
	return result
}

func main() {
	js.Global().Set("voxv2glb", js.FuncOf(voxv2glb))
	js.Global().Set("voxpack2glb", js.FuncOf(voxpack2glb))
	js.Global().Set("packVolumes", js.FuncOf(packVolumes))
	js.Global().Set("unpackVoxpack", js.FuncOf(unpackVoxpack))
	select {}
}
