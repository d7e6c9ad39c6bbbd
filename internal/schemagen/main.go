// Command schemagen generates the JSON schema for the kubeapply
// configuration file.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"kubeapply/pkg/config"
)

var outFile = flag.String("o", "schema.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	r := &jsonschema.Reflector{
		ExpandedStruct: false,
	}

	for _, pkgPath := range []string{
		"../../pkg/config",
		"../../pkg/deploy",
		"../../pkg/execs",
	} {
		err := r.AddGoComments("kubeapply", pkgPath)
		if err != nil {
			log.Fatalf("add go comments for %s: %v", pkgPath, err)
		}
	}

	jss := r.Reflect(config.New())
	jss.ID = "https://kubeapply.dev/config.v1beta1.json"

	jsData, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		log.Fatalf("marshal JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, append(jsData, '\n'), 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
