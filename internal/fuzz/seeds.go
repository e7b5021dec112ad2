package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var mappingSeeds = []string{
	"",
	";;;",
	"AAAA",
	"AAAA,C,EAAE",
	"AAAAA,EAAE;AACA",
	"CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOC,IAAID;CCDb,IAAI,IAAM,SAAUE,GAClB,OAAOA",
	"AAAA,AA",
	"gggggggggggg",
	"+/+/",
}

var mapSeeds = []string{
	`{"version":3,"sources":["a.js"],"names":["x"],"mappings":"AAAAA,EAAE"}`,
	`)]}'` + "\n" + `{"version":3,"sources":[],"names":[],"mappings":"A"}`,
	`{"version":"3","sourceRoot":"/r","sources":["a.js",null],"sourcesContent":["x"],"names":[],"mappings":"AAAA;ACAA"}`,
	`{"version":3,"sections":[{"offset":{"line":0,"column":0},"map":{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}},` +
		`{"offset":{"line":0,"column":10},"map":{"version":3,"sources":["b.js"],"names":[],"mappings":"AAAA,EAAE"}}]}`,
	`{"version":3,"sections":[{"offset":{"line":1,"column":0},"url":"x.map"}]}`,
	`{"version":2}`,
	`{`,
}

func addMappingSeeds(f *testing.F) {
	for _, s := range mappingSeeds {
		f.Add(s)
	}
}

func addMapSeeds(f *testing.F) {
	for _, s := range mapSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every *.map file under the repository testdata.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".map" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clamp(data))
		return nil
	})
}

func clamp(b []byte) []byte {
	if len(b) > maxSeedBytes {
		b = b[:maxSeedBytes]
	}
	return append([]byte(nil), b...)
}
