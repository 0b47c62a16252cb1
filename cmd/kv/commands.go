package kv

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value] [ttl]",
		Short: "Stores the value for a key with a ttl in seconds (0 = no expiry)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			var ttl uint64
			if len(args) == 3 {
				var err error
				ttl, err = strconv.ParseUint(args[2], 10, 32)
				if err != nil {
					return fmt.Errorf("ttl must be a number: %w", err)
				}
			}
			if err := client.Put([]byte(key), []byte(value), uint32(ttl)); err != nil {
				return err
			} else {
				fmt.Println("put successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if value, err := client.Get([]byte(key)); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, shard=%d, value=%s\n", key, client.Shard([]byte(key)), value)
			}
			return nil
		},
	}
	safeGetCmd = &cobra.Command{
		Use:   "safe-get [key]",
		Short: "Reads the value for a key, printing nothing on any failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if value := client.SafeGet([]byte(key)); value != nil {
				fmt.Printf("%s\n", value)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := client.Del([]byte(key)); err != nil {
				return err
			} else {
				fmt.Println("del successfully")
			}
			return nil
		},
	}
)
