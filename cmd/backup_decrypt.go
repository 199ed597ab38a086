package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/crypto"
	"github.com/spf13/cobra"
)

var decryptOutput string

var backupDecryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt an encrypted backup",
	Long:  "Decrypt a GPG-encrypted backup archive using the local keyring",
	Args:  cobra.ExactArgs(1),
	Run:   runBackupDecrypt,
}

func runBackupDecrypt(cmd *cobra.Command, args []string) {
	path := args[0]

	env, err := loadEnv()
	if err != nil {
		fatal("%v", err)
	}

	if !crypto.Available() {
		fatal("gpg binary not found in PATH")
	}

	if !crypto.IsEncryptedPath(path) {
		verdict, serr := crypto.SniffFile(path)
		if serr != nil {
			fatal("failed to inspect %s: %v", path, serr)
		}
		if verdict == crypto.VerdictPlain {
			fatal("%s is not encrypted", path)
		}
		if verdict == crypto.VerdictUnknown && !env.confirmer.Confirm(
			fmt.Sprintf("cannot tell whether %s is encrypted, attempt decryption anyway?", path), false) {
			fatal("aborted")
		}
	}

	out := decryptOutput
	if out == "" {
		out = strings.TrimSuffix(path, ".gpg")
		if out == path {
			out = path + ".decrypted"
		}
	}

	engine, err := crypto.NewEngine(env.cfg)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Println(titleStyle.Render("==> decrypting backup"))
	fmt.Println()
	fmt.Println(progressStyle.Render(fmt.Sprintf("  --> running gpg on %s...", path)))

	if err := engine.Decrypt(context.Background(), path, out); err != nil {
		fmt.Println()
		fatal("decryption failed: %v", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("  [done] decrypted successfully"))
	fmt.Printf("    %s %s\n", dimStyle.Render("output:"), valueStyle.Render(out))
	fmt.Println()
}

func init() {
	backupDecryptCmd.Flags().StringVarP(&decryptOutput, "output", "o", "", "output path (default: input without .gpg suffix)")
	backupCmd.AddCommand(backupDecryptCmd)
}
