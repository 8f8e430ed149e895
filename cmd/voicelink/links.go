package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/memohai/voicelink/internal/boot"
	"github.com/memohai/voicelink/internal/links"
	"github.com/memohai/voicelink/internal/logger"
)

func newLinksCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Inspect stored links",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every uuid -> Discord user link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := provideConfig(resolveConfigPath(*configPath))
			if err != nil {
				return err
			}
			rc, err := boot.ProvideRuntimeConfig(cfg)
			if err != nil {
				return err
			}
			store, err := links.Open(logger.Discard(), rc.StorageDriver, rc.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			all := store.All()
			uuids := make([]string, 0, len(all))
			for uuid := range all {
				uuids = append(uuids, uuid)
			}
			sort.Strings(uuids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "UUID\tDISCORD USER")
			for _, uuid := range uuids {
				fmt.Fprintf(w, "%s\t%s\n", uuid, all[uuid])
			}
			return w.Flush()
		},
	})
	return cmd
}
