package sourcemap

const fixtureMappings = "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOC,IAAID;CCDb,IAAI,IAAM,SAAUE,GAClB,OAAOA"

const testMap = `{
  "version": 3,
  "file": "min.js",
  "names": ["bar", "baz", "n"],
  "sources": ["one.js", "two.js"],
  "sourceRoot": "/the/root",
  "mappings": "` + fixtureMappings + `"
}`

const testMapNoSourceRoot = `{
  "version": 3,
  "file": "min.js",
  "names": ["bar", "baz", "n"],
  "sources": ["one.js", "two.js"],
  "mappings": "` + fixtureMappings + `"
}`

const testMapEmptySourceRoot = `{
  "version": 3,
  "file": "min.js",
  "names": ["bar", "baz", "n"],
  "sources": ["one.js", "two.js"],
  "sourceRoot": "",
  "mappings": "` + fixtureMappings + `"
}`

const testMapWithSourcesContent = `{
  "version": 3,
  "file": "min.js",
  "names": ["bar", "baz", "n"],
  "sources": ["one.js", "two.js"],
  "sourcesContent": [
    " ONE.foo = function (bar) {\n   return baz(bar);\n };",
    " TWO.inc = function (n) {\n   return n + 1;\n };"
  ],
  "sourceRoot": "/the/root",
  "mappings": "` + fixtureMappings + `"
}`

const indexedTestMap = `{
  "version": 3,
  "file": "min.js",
  "sections": [
    {
      "offset": {"line": 0, "column": 0},
      "map": {
        "version": 3,
        "sources": ["one.js"],
        "sourcesContent": [" ONE.foo = function (bar) {\n   return baz(bar);\n };"],
        "names": ["bar", "baz"],
        "mappings": "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOC,IAAID",
        "file": "min.js",
        "sourceRoot": "/the/root"
      }
    },
    {
      "offset": {"line": 1, "column": 0},
      "map": {
        "version": 3,
        "sources": ["two.js"],
        "sourcesContent": [" TWO.inc = function (n) {\n   return n + 1;\n };"],
        "names": ["n"],
        "mappings": "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOA",
        "file": "min.js",
        "sourceRoot": "/the/root"
      }
    }
  ]
}`

const indexedTestMapDifferentSourceRoots = `{
  "version": 3,
  "file": "min.js",
  "sections": [
    {
      "offset": {"line": 0, "column": 0},
      "map": {
        "version": 3,
        "sources": ["one.js"],
        "names": ["bar", "baz"],
        "mappings": "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOC,IAAID",
        "file": "min.js",
        "sourceRoot": "/the/root"
      }
    },
    {
      "offset": {"line": 1, "column": 0},
      "map": {
        "version": 3,
        "sources": ["two.js"],
        "names": ["n"],
        "mappings": "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOA",
        "file": "min.js",
        "sourceRoot": "/different/root"
      }
    }
  ]
}`

// the serialization of testMap produced by the generator
const testMapJSON = `{"version":3,"sources":["one.js","two.js"],"names":["bar","baz","n"],"mappings":"` +
	fixtureMappings + `","file":"min.js","sourceRoot":"/the/root"}`
