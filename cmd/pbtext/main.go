// pbtext converts between the protobuf text format, a CBOR wire form and
// JSON, driven by a YAML or JSON schema file.
//
//	pbtext parse --schema book.yaml --type AddressBook --in book.txt --out book.cbor
//	pbtext dump  --schema book.yaml --type AddressBook --in book.cbor
//	pbtext check --schema book.yaml --type AddressBook --in book.txt
//	pbtext json  --schema book.yaml --type AddressBook --in book.txt.zst
//	pbtext fmt   --schema book.yaml --type AddressBook --in book.txt
//	pbtext schema --schema book.yaml --type AddressBook
//
// Inputs compressed with gzip, zstd or lz4 are detected automatically;
// outputs are compressed when --out ends in .gz, .zst or .lz4. Defaults
// come from --config (TOML) and PBTEXT_* environment variables.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}))
}
