package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Submit job requests to the server pipeline",
}

var (
	flagJobID    string
	flagJobForce bool
)

// terminalJobStates are the pipeline states that end a wait loop.
var terminalJobStates = map[string]bool{
	"done":      true,
	"failed":    true,
	"cancelled": true,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs in the server pipeline",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/jobs/", nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var jobInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show info for a job in the server pipeline",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		jobID, err := parseJobID()
		if err != nil {
			return err
		}
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/jobs/"+jobID, nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

var jobStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current pipeline state of a job",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		jobID, err := parseJobID()
		if err != nil {
			return err
		}
		state, err := fetchJobState(cmd.Context(), rt, jobID)
		if err != nil {
			return err
		}
		rt.printer.Message(state)
		return nil
	}),
}

var jobWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a job reaches a terminal state",
	Long: `Poll the server until the job finishes or fails.

The poll interval grows exponentially up to a cap. There is no cancellation
hook; interrupt the process to abort the wait.`,
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		jobID, err := parseJobID()
		if err != nil {
			return err
		}

		wait := backoff.NewExponentialBackOff()
		wait.InitialInterval = 2 * time.Second
		wait.MaxInterval = 30 * time.Second
		wait.MaxElapsedTime = 0 // poll until terminal state or error

		for {
			state, errState := fetchJobState(cmd.Context(), rt, jobID)
			if errState != nil {
				return errState
			}
			if terminalJobStates[state] {
				rt.printer.Message(fmt.Sprintf("Job %s finished with state: %s", jobID, state))
				return nil
			}
			log.Debugf("job %s still in state %q", jobID, state)
			time.Sleep(wait.NextBackOff())
		}
	}),
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a job from the server pipeline",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		jobID, err := parseJobID()
		if err != nil {
			return err
		}
		if !flagJobForce && !confirm("Are you sure you want to delete job?") {
			return fmt.Errorf("aborted")
		}
		body, err := rt.session.Do(cmd.Context(), http.MethodDelete, "/v1/jobs/"+jobID, nil)
		if err != nil {
			return err
		}
		rt.printer.Message(gjson.GetBytes(body, "msg").String())
		return nil
	}),
}

// parseJobID validates the --job-id flag as a UUID.
func parseJobID() (string, error) {
	id, err := uuid.Parse(flagJobID)
	if err != nil {
		return "", fmt.Errorf("invalid --job-id %q: %w", flagJobID, err)
	}
	return id.String(), nil
}

func fetchJobState(ctx context.Context, rt *runtime, jobID string) (string, error) {
	body, err := rt.session.Do(ctx, http.MethodGet, "/v1/jobs/"+jobID, nil)
	if err != nil {
		return "", err
	}
	state := gjson.GetBytes(body, "state").String()
	if state == "" {
		return "", fmt.Errorf("job %s carried no state field", jobID)
	}
	return state, nil
}

// newCloudJobCommand builds the per-cloud job group: add from a JSON
// document plus the schema query in its three output styles.
func newCloudJobCommand(cloud string) *cobra.Command {
	cloudCmd := &cobra.Command{
		Use:   cloud,
		Short: fmt.Sprintf("Submit %s job requests", cloud),
	}

	var dryRun bool
	addCmd := &cobra.Command{
		Use:   "add DOCUMENT",
		Short: fmt.Sprintf("Add a %s job from a JSON document", cloud),
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read job document: %w", err)
			}
			var jobData map[string]any
			if err = json.Unmarshal(raw, &jobData); err != nil {
				return fmt.Errorf("failed to parse job document: %w", err)
			}
			if dryRun {
				jobData["dry_run"] = true
			}

			body, err := rt.session.Do(cmd.Context(), http.MethodPost, "/v1/jobs/"+cloud+"/", jobData)
			if err != nil {
				return err
			}
			if msg := gjson.GetBytes(body, "msg"); msg.Exists() {
				rt.printer.Message(msg.String())
			} else {
				rt.printer.Dict(body)
			}
			return nil
		}),
	}
	addCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the job document but do not create the job")

	var styleJSON, styleRaw, styleAnnotated bool
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: fmt.Sprintf("Show the job document schema for %s", cloud),
		RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
			style, err := pickSchemaStyle(styleJSON, styleRaw, styleAnnotated)
			if err != nil {
				return err
			}
			body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/jobs/"+cloud+"/", nil)
			if err != nil {
				return err
			}
			return renderSchema(rt, body, style)
		}),
	}
	schemaCmd.Flags().BoolVar(&styleJSON, "json", false, "print the schema as plain JSON without annotations")
	schemaCmd.Flags().BoolVar(&styleRaw, "raw", false, "print the schema exactly as the server sent it")
	schemaCmd.Flags().BoolVar(&styleAnnotated, "annotated", false, "print the schema with descriptions and examples (default)")

	cloudCmd.AddCommand(addCmd)
	cloudCmd.AddCommand(schemaCmd)
	return cloudCmd
}

func init() {
	for _, c := range []*cobra.Command{jobInfoCmd, jobStatusCmd, jobWaitCmd, jobDeleteCmd} {
		c.Flags().StringVar(&flagJobID, "job-id", "", "the UUID of the job")
		_ = c.MarkFlagRequired("job-id")
	}
	jobDeleteCmd.Flags().BoolVar(&flagJobForce, "force", false, "force deletion without prompt")

	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobInfoCmd)
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobWaitCmd)
	jobCmd.AddCommand(jobDeleteCmd)
	for _, cloud := range clouds {
		jobCmd.AddCommand(newCloudJobCommand(cloud))
	}
}
