package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newListCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every live chunk in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			for _, c := range s.All() {
				kind := "temporal"
				if c.IsStatic() {
					kind = "static"
				}
				fmt.Printf("%s\t%s\t%s\t%d rows\n", c.Id(), c.EntityPath(), kind, c.Len())
			}
			return nil
		},
	}
}
