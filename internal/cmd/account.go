package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage cloud framework accounts",
}

// fieldKind selects how a flag value lands in the request payload.
type fieldKind int

const (
	fieldString fieldKind = iota
	fieldBool
	// fieldFileJSON reads the flag value as a path and embeds the
	// parsed JSON document under the payload key.
	fieldFileJSON
	// fieldFileText reads the flag value as a path and embeds the raw
	// file contents as a string.
	fieldFileText
)

type accountField struct {
	flag     string
	key      string
	usage    string
	kind     fieldKind
	required bool
	allowed  []string
}

// cloudAccountFields describes the add/update surface for each cloud
// framework. Required fields bind only on add; update sends whatever
// subset of flags the caller changed.
var cloudAccountFields = map[string][]accountField{
	"ec2": {
		{flag: "access-key-id", key: "access_key_id", usage: "the EC2 access key ID", required: true},
		{flag: "secret-access-key", key: "secret_access_key", usage: "the EC2 secret access key", required: true},
		{flag: "region", key: "region", usage: "the region to use for the test instance", required: true},
		{flag: "partition", key: "partition", usage: "the AWS partition", required: true,
			allowed: []string{"aws", "aws-cn", "aws-us-gov"}},
		{flag: "additional-regions", key: "additional_regions", usage: "comma separated list of additional region names"},
		{flag: "group", key: "group", usage: "group name to associate the account with"},
		{flag: "subnet", key: "subnet", usage: "subnet ID for the test instance"},
	},
	"azure": {
		{flag: "credentials", key: "credentials", usage: "path to the Azure service principal credentials file", kind: fieldFileJSON, required: true},
		{flag: "region", key: "region", usage: "the region to use for the test instance", required: true},
		{flag: "source-container", key: "source_container", usage: "container for uploaded images", required: true},
		{flag: "source-resource-group", key: "source_resource_group", usage: "resource group for the source storage account", required: true},
		{flag: "source-storage-account", key: "source_storage_account", usage: "storage account for uploaded images", required: true},
		{flag: "destination-container", key: "destination_container", usage: "container for published images", required: true},
		{flag: "destination-resource-group", key: "destination_resource_group", usage: "resource group for the destination storage account", required: true},
		{flag: "destination-storage-account", key: "destination_storage_account", usage: "storage account for published images", required: true},
		{flag: "group", key: "group", usage: "group name to associate the account with"},
	},
	"gce": {
		{flag: "credentials", key: "credentials", usage: "path to the GCE service account credentials file", kind: fieldFileJSON, required: true},
		{flag: "bucket", key: "bucket", usage: "storage bucket for uploaded images", required: true},
		{flag: "zone", key: "zone", usage: "the zone to use for the test instance", required: true},
		{flag: "testing-account", key: "testing_account", usage: "service account used for test instances"},
		{flag: "is-publishing-account", key: "is_publishing_account", usage: "mark the account as a publishing account", kind: fieldBool},
		{flag: "group", key: "group", usage: "group name to associate the account with"},
	},
	"oci": {
		{flag: "signing-key-file", key: "signing_key", usage: "path to the API signing key file", kind: fieldFileText, required: true},
		{flag: "oci-user-id", key: "oci_user_id", usage: "the OCID of the API user", required: true},
		{flag: "tenancy", key: "tenancy", usage: "the OCID of the tenancy", required: true},
		{flag: "compartment-id", key: "compartment_id", usage: "the OCID of the compartment", required: true},
		{flag: "availability-domain", key: "availability_domain", usage: "availability domain for the test instance", required: true},
		{flag: "region", key: "region", usage: "the region to use for the test instance", required: true},
		{flag: "bucket", key: "bucket", usage: "storage bucket for uploaded images", required: true},
		{flag: "group", key: "group", usage: "group name to associate the account with"},
	},
	"aliyun": {
		{flag: "access-key", key: "access_key", usage: "the Aliyun access key", required: true},
		{flag: "access-secret", key: "access_secret", usage: "the Aliyun access secret", required: true},
		{flag: "region", key: "region", usage: "the region to use for the test instance", required: true},
		{flag: "bucket", key: "bucket", usage: "storage bucket for uploaded images", required: true},
		{flag: "security-group-id", key: "security_group_id", usage: "security group ID for the test instance"},
		{flag: "vswitch-id", key: "vswitch_id", usage: "vswitch ID for the test instance"},
		{flag: "group", key: "group", usage: "group name to associate the account with"},
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cloud framework accounts",
	RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/accounts/", nil)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	}),
}

// collectFields turns set flags into a request payload. When requireAll
// is true, every required field must carry a value.
func collectFields(cmd *cobra.Command, fields []accountField, values map[string]*string, bools map[string]*bool, requireAll bool) (map[string]any, error) {
	payload := map[string]any{}
	for _, f := range fields {
		if f.kind == fieldBool {
			if cmd.Flags().Changed(f.flag) {
				payload[f.key] = *bools[f.flag]
			}
			continue
		}
		value := *values[f.flag]
		if value == "" {
			if f.required && requireAll {
				return nil, fmt.Errorf("missing required flag --%s", f.flag)
			}
			continue
		}
		switch f.kind {
		case fieldFileJSON:
			raw, err := os.ReadFile(value)
			if err != nil {
				return nil, fmt.Errorf("failed to read credentials file: %w", err)
			}
			var doc map[string]any
			if err = json.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("failed to parse credentials file: %w", err)
			}
			payload[f.key] = doc
		case fieldFileText:
			raw, err := os.ReadFile(value)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", f.flag, err)
			}
			payload[f.key] = string(raw)
		default:
			if len(f.allowed) > 0 && !contains(f.allowed, value) {
				return nil, fmt.Errorf("invalid --%s %q, expected one of: %s",
					f.flag, value, strings.Join(f.allowed, ", "))
			}
			payload[f.key] = value
		}
	}
	return payload, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// newCloudAccountCommand builds the per-cloud account group with
// add, info, delete and update backed by the field table.
func newCloudAccountCommand(cloud string) *cobra.Command {
	fields := cloudAccountFields[cloud]
	cloudCmd := &cobra.Command{
		Use:   cloud,
		Short: fmt.Sprintf("Manage %s accounts", cloud),
	}

	registerFields := func(c *cobra.Command) (map[string]*string, map[string]*bool) {
		values := map[string]*string{}
		bools := map[string]*bool{}
		for _, f := range fields {
			if f.kind == fieldBool {
				bools[f.flag] = c.Flags().Bool(f.flag, false, f.usage)
				continue
			}
			values[f.flag] = c.Flags().String(f.flag, "", f.usage)
		}
		return values, bools
	}

	var addName string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s account", cloud),
	}
	addValues, addBools := registerFields(addCmd)
	addCmd.Flags().StringVar(&addName, "name", "", "the account name")
	_ = addCmd.MarkFlagRequired("name")
	addCmd.RunE = run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		payload, err := collectFields(cmd, fields, addValues, addBools, true)
		if err != nil {
			return err
		}
		payload["account_name"] = addName
		body, err := rt.session.Do(cmd.Context(), http.MethodPost, "/v1/accounts/"+cloud+"/", payload)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	})

	var infoName string
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: fmt.Sprintf("Show info for a %s account", cloud),
		RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
			body, err := rt.session.Do(cmd.Context(), http.MethodGet, "/v1/accounts/"+cloud+"/"+infoName, nil)
			if err != nil {
				return err
			}
			rt.printer.Dict(body)
			return nil
		}),
	}
	infoCmd.Flags().StringVar(&infoName, "name", "", "the account name")
	_ = infoCmd.MarkFlagRequired("name")

	var deleteName string
	var deleteForce bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: fmt.Sprintf("Delete a %s account", cloud),
		RunE: run(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !deleteForce && !confirm("Are you sure you want to delete account?") {
				return fmt.Errorf("aborted")
			}
			body, err := rt.session.Do(cmd.Context(), http.MethodDelete, "/v1/accounts/"+cloud+"/"+deleteName, nil)
			if err != nil {
				return err
			}
			rt.printer.Message(gjson.GetBytes(body, "msg").String())
			return nil
		}),
	}
	deleteCmd.Flags().StringVar(&deleteName, "name", "", "the account name")
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "force deletion without prompt")
	_ = deleteCmd.MarkFlagRequired("name")

	var updateName string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: fmt.Sprintf("Update a %s account", cloud),
	}
	updateValues, updateBools := registerFields(updateCmd)
	updateCmd.Flags().StringVar(&updateName, "name", "", "the account name")
	_ = updateCmd.MarkFlagRequired("name")
	updateCmd.RunE = run(func(cmd *cobra.Command, args []string, rt *runtime) error {
		payload, err := collectFields(cmd, fields, updateValues, updateBools, false)
		if err != nil {
			return err
		}
		if len(payload) == 0 {
			return ErrNothingToUpdate
		}
		body, err := rt.session.Do(cmd.Context(), http.MethodPut, "/v1/accounts/"+cloud+"/"+updateName, payload)
		if err != nil {
			return err
		}
		rt.printer.Dict(body)
		return nil
	})

	cloudCmd.AddCommand(addCmd)
	cloudCmd.AddCommand(infoCmd)
	cloudCmd.AddCommand(deleteCmd)
	cloudCmd.AddCommand(updateCmd)
	return cloudCmd
}

func init() {
	accountCmd.AddCommand(accountListCmd)
	for _, cloud := range clouds {
		accountCmd.AddCommand(newCloudAccountCommand(cloud))
	}
}
