package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/callhubmcp/callhubmcp/internal/account"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List configured CallHub accounts",
	RunE:  runAccounts,
}

func runAccounts(_ *cobra.Command, _ []string) error {
	infos := account.NewResolver().List()
	if len(infos) == 0 {
		fmt.Println("No CallHub accounts configured.")
		fmt.Println("Set CALLHUB_<NAME>_API_KEY, CALLHUB_<NAME>_USERNAME and optionally")
		fmt.Println("CALLHUB_<NAME>_BASE_URL in the environment or a .env file.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUSERNAME\tAPI KEY\tBASE URL")
	for _, in := range infos {
		name := in.Name
		if in.Default {
			name += " (default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, in.Username, in.APIKeyMasked, in.BaseURL)
	}
	return w.Flush()
}
