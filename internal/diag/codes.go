package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// document
	DocInfo                Code = 1000
	DocInvalidJSON         Code = 1001
	DocUnsupportedVersion  Code = 1002
	DocMissingField        Code = 1003
	DocSourcesContentLen   Code = 1004
	DocDuplicateSource     Code = 1005
	DocEmptySourceRoot     Code = 1006
	DocMappingsWithSection Code = 1007

	// mappings
	MapInfo          Code = 2000
	MapDecode        Code = 2001
	MapSourceIndex   Code = 2002
	MapNameIndex     Code = 2003
	MapSegmentOrder  Code = 2004
	MapUnusedSource  Code = 2005
	MapUnusedName    Code = 2006
	MapGeneratedOnly Code = 2007

	// sections of indexed maps
	SecInfo       Code = 3000
	SecOrder      Code = 3001
	SecURL        Code = 3002
	SecNested     Code = 3003
	SecMissingMap Code = 3004

	// I/O
	IOLoadFileError Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	DocInfo:                "Document information",
	DocInvalidJSON:         "Invalid JSON",
	DocUnsupportedVersion:  "Unsupported source map version",
	DocMissingField:        "Missing required field",
	DocSourcesContentLen:   "sourcesContent is longer than sources",
	DocDuplicateSource:     "Duplicate entry in sources",
	DocEmptySourceRoot:     "Empty sourceRoot",
	DocMappingsWithSection: "Indexed map also has mappings",
	MapInfo:                "Mappings information",
	MapDecode:              "Malformed mappings",
	MapSourceIndex:         "Source index out of range",
	MapNameIndex:           "Name index out of range",
	MapSegmentOrder:        "Segments out of order within a line",
	MapUnusedSource:        "Source is never referenced",
	MapUnusedName:          "Name is never referenced",
	MapGeneratedOnly:       "Map has no original positions",
	SecInfo:                "Section information",
	SecOrder:               "Section offsets out of order",
	SecURL:                 "Section refers to an external map",
	SecNested:              "Nested sections",
	SecMissingMap:          "Section has no map",
	IOLoadFileError:        "I/O load file error",
}

func (c Code) ID() string {
	return fmt.Sprintf("SM%04d", int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
