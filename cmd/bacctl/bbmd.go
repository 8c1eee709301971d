// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var bbmdCmd = &cobra.Command{
	Use:   "bbmd",
	Short: "Administer a BACnet Broadcast Management Device",
	Long: `bbmd issues the BVLC administrative commands that configure and
inspect a BACnet Broadcast Management Device's tables.

Requires --bbmd to be set on the root command.

Examples:
  bacctl bbmd read-bdt --bbmd 10.0.0.1
  bacctl bbmd read-fdt --bbmd 10.0.0.1
  bacctl bbmd delete-fdt-entry --bbmd 10.0.0.1 --entry 10.0.0.5:47808`,
}

var bbmdReadBDTCmd = &cobra.Command{
	Use:   "read-bdt",
	Short: "Read the BBMD's broadcast distribution table",
	RunE:  runBBMDReadBDT,
}

var bbmdReadFDTCmd = &cobra.Command{
	Use:   "read-fdt",
	Short: "Read the BBMD's foreign device table",
	RunE:  runBBMDReadFDT,
}

var bbmdDeleteFDTEntryCmd = &cobra.Command{
	Use:   "delete-fdt-entry",
	Short: "Remove a registrant from the BBMD's foreign device table",
	RunE:  runBBMDDeleteFDTEntry,
}

var fdtEntryFlag string

func init() {
	bbmdDeleteFDTEntryCmd.Flags().StringVar(&fdtEntryFlag, "entry", "", "Registrant address to remove, host:port")
	bbmdDeleteFDTEntryCmd.MarkFlagRequired("entry")

	bbmdCmd.AddCommand(bbmdReadBDTCmd)
	bbmdCmd.AddCommand(bbmdReadFDTCmd)
	bbmdCmd.AddCommand(bbmdDeleteFDTEntryCmd)
}

func requireBBMD() error {
	if bbmdAddress == "" {
		return fmt.Errorf("--bbmd is required for administrative commands")
	}
	return nil
}

func runBBMDReadBDT(cmd *cobra.Command, args []string) error {
	if err := requireBBMD(); err != nil {
		return err
	}

	client, err := createClient()
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout*2)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	entries, err := client.ReadBroadcastDistributionTable(ctx)
	if err != nil {
		return fmt.Errorf("read BDT: %w", err)
	}

	fmt.Printf("%-18s %-8s %s\n", "ADDRESS", "PORT", "MASK")
	for _, e := range entries {
		fmt.Printf("%-18s %-8d %d.%d.%d.%d\n",
			fmt.Sprintf("%d.%d.%d.%d", e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3]),
			e.Port,
			e.Mask[0], e.Mask[1], e.Mask[2], e.Mask[3],
		)
	}
	return nil
}

func runBBMDReadFDT(cmd *cobra.Command, args []string) error {
	if err := requireBBMD(); err != nil {
		return err
	}

	client, err := createClient()
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout*2)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	entries, err := client.ReadForeignDeviceTable(ctx)
	if err != nil {
		return fmt.Errorf("read FDT: %w", err)
	}

	fmt.Printf("%-18s %-8s %-8s %s\n", "ADDRESS", "PORT", "TTL", "REMAINING")
	for _, e := range entries {
		fmt.Printf("%-18s %-8d %-8d %d\n",
			fmt.Sprintf("%d.%d.%d.%d", e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3]),
			e.Port, e.TTL, e.Remaining,
		)
	}
	return nil
}

func runBBMDDeleteFDTEntry(cmd *cobra.Command, args []string) error {
	if err := requireBBMD(); err != nil {
		return err
	}

	addr, port, err := parseHostPort(fdtEntryFlag)
	if err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	client, err := createClient()
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout*2)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if err := client.DeleteForeignDeviceTableEntry(ctx, addr, port); err != nil {
		return fmt.Errorf("delete FDT entry: %w", err)
	}

	fmt.Printf("Removed %s from foreign device table\n", fdtEntryFlag)
	return nil
}

func parseHostPort(s string) (addr [4]byte, port uint16, err error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return addr, 0, err
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return addr, 0, fmt.Errorf("not an IPv4 address: %s", host)
	}
	copy(addr[:], ip)

	p, err := strconv.ParseUint(strings.TrimSpace(portStr), 10, 16)
	if err != nil {
		return addr, 0, err
	}
	return addr, uint16(p), nil
}
