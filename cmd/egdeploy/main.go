// Command egdeploy registers the resources in a deployment file with the Event Gateway.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/UKHomeOffice/gwdeploy/pkg/deployer"
	"github.com/UKHomeOffice/gwdeploy/pkg/deployfile"
	"github.com/UKHomeOffice/gwdeploy/pkg/logging"
	"github.com/UKHomeOffice/gwdeploy/pkg/statestore"
)

func main() {

	log := logging.NewConsole("egdeploy")

	var (
		file      = flag.String("f", "deploy.yml", "deployment file (.yml, .toml or .json)")
		stateFile = flag.String("state", ".egdeploy-state.json", "local state file")
		table     = flag.String("table", "", "DynamoDB state table, used instead of the local state file when set")
		gwURL     = flag.String("url", "", "Event Gateway configuration API URL")
		space     = flag.String("space", "", "Event Gateway space")
		accessKey = flag.String("access-key", "", "Event Gateway access key")
	)
	flag.Parse()

	f, err := deployfile.Load(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load deployment")
	}

	in := f.Inputs
	if *gwURL != "" {
		in.URL = *gwURL
	}
	if *space != "" {
		in.Space = *space
	}
	if *accessKey != "" {
		in.AccessKey = *accessKey
	}

	var store deployer.Store = &statestore.File{Path: *stateFile}
	if *table != "" {
		sess := session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))
		ddb := dynamodb.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})
		store = statestore.NewDynamo(ddb, *table, f.Service, log)
	}

	log.Info().Str("service", f.Service).Str("file", *file).Msg("deploying")

	out, err := deployer.Run(context.Background(), in, f.Service, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("deploy failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("could not write output")
	}
}
