package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentra-analysis/sentra/internal/cache"
)

func newCacheCmd() *cobra.Command {
	var cachePath string

	root := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the incremental analysis cache",
	}
	root.PersistentFlags().StringVar(&cachePath, "cache", "", "path to the SQLite cache file")
	root.MarkPersistentFlagRequired("cache")

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Print the number of cached file entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Open(cachePath)
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Count()
			if err != nil {
				return err
			}
			fmt.Printf("%d cached entr(y/ies)\n", n)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Open(cachePath)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		},
	}

	root.AddCommand(inspect, clear)
	return root
}
