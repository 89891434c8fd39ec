// Package probe inspects PNG headers without decoding pixel data.
//
// A probe reads only the signature and the IHDR chunk (plus whatever
// image/png needs to validate the configuration), so the runner can reject
// oversized images and the analyzer can list an archive cheaply.
//
// Files:
//   - types.go: Info and its derived properties (resolution, pixels, color type)
//   - prober.go: Probe(ctx, path) and ParseHeader(data)
//   - depth.go: bit-depth and interlace checks that change how decode behaves
package probe
