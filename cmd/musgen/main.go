package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/amlog/core"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// If we're in the core subpackage, cd up to project root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/amlog/core"),
	)
	if err != nil {
		panic(err)
	}

	// Unix nano timestamps
	opts := typeops.WithTimeUnit(typeops.Nano)
	err = g.AddStruct(reflect.TypeFor[core.LogEntry](),
		structops.WithField(),     // ID
		structops.WithField(opts), // Timestamp
		structops.WithField(),     // Callsign
		structops.WithField(),     // Frequency
		structops.WithField(),     // Mode
		structops.WithField(),     // RSTSent
		structops.WithField(),     // RSTReceived
		structops.WithField(),     // Notes
		structops.WithField(),     // Operator
		structops.WithField(),     // Grid
		structops.WithField(),     // Power
		structops.WithField(),     // QTH
		structops.WithField(),     // State
		structops.WithField(),     // Country
		structops.WithField(),     // Band
		structops.WithField(),     // DXCC
		structops.WithField(),     // Name
		structops.WithField(),     // County
		structops.WithField(),     // MyCallsign
		structops.WithField(),     // MyGrid
		structops.WithField())     // CustomFields
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	err = os.WriteFile("./core/records_mus.gen.go", bs, 0644)
	if err != nil {
		panic(err)
	}
}
