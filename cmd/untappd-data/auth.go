package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dallangoldblatt/untappd-data/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage the credential profiles the pipeline runs with.

A profile bundles the object store key pair and the Foursquare key pair
under a name. Profiles are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Pick a profile per run with --profile; without it the environment wins,
then the most recently stored profile.`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a credential profile",
	Long: `Store a named credential profile in the system keychain or encrypted
file.

You will be prompted for the object store key pair and the Foursquare key
pair. Leave a prompt empty to skip that pair; a profile needs at least one.
Secrets are hidden as you type.

See 'untappd-data auth setup' for how to obtain the credentials.`,
	Example: `  # Store the default profile
  untappd-data auth login

  # Store a named profile
  untappd-data auth login production`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored profile",
	Long: `Remove a stored credential profile.

Without a profile name you are shown the stored profiles to choose from,
including the option to remove all of them.`,
	Example: `  # Interactive removal
  untappd-data auth logout

  # Remove a specific profile
  untappd-data auth logout production`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List all stored credential profiles with secrets masked.`,
	Run:   runAuthList,
}

// authSetupCmd represents the auth setup command
var authSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Show how to obtain the credentials",
	Long:  `Show where the object store and Foursquare credentials come from and how to configure them.`,
	Run: func(cmd *cobra.Command, args []string) {
		auth.PrintSetupInstructions()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authSetupCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize credential manager: %v\n", err)
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "profile name is required")
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil && existing.Name != "environment" {
		fmt.Printf("Profile %q already exists. Update it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Printf("Storing profile %q. Leave a prompt empty to skip that pair.\n\n", name)

	fmt.Println("Object store (S3) credentials:")
	fmt.Print("  Access key ID: ")
	accessKeyID, _ := reader.ReadString('\n')
	accessKeyID = strings.TrimSpace(accessKeyID)

	var secretAccessKey string
	if accessKeyID != "" {
		fmt.Print("  Secret access key: ")
		secretAccessKey, err = readSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read secret: %v\n", err)
			os.Exit(1)
		}
		if secretAccessKey == "" {
			fmt.Fprintln(os.Stderr, "secret access key is required with an access key ID")
			os.Exit(1)
		}
	}

	fmt.Println("\nFoursquare credentials:")
	fmt.Print("  Client ID: ")
	clientID, _ := reader.ReadString('\n')
	clientID = strings.TrimSpace(clientID)

	var clientSecret string
	if clientID != "" {
		fmt.Print("  Client secret: ")
		clientSecret, err = readSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read secret: %v\n", err)
			os.Exit(1)
		}
		if clientSecret == "" {
			fmt.Fprintln(os.Stderr, "client secret is required with a client ID")
			os.Exit(1)
		}
	}

	profile := &auth.Profile{
		Name:                   name,
		AccessKeyID:            accessKeyID,
		SecretAccessKey:        secretAccessKey,
		FoursquareClientID:     clientID,
		FoursquareClientSecret: clientSecret,
		LastModified:           time.Now(),
	}

	if err := manager.Store(profile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nProfile %q stored", name)
	if auth.IsKeyringAvailable() {
		fmt.Print(" in the system keychain")
	} else {
		fmt.Print(" in the encrypted profile file")
	}
	fmt.Println(".")
	fmt.Println("\nUse it with:")
	fmt.Printf("  untappd-data run --profile %s\n", name)
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize credential manager: %v\n", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		name := args[0]
		if err := manager.Delete(name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Profile removed:", name)
		return
	}

	profiles, err := manager.List()
	if err != nil || len(profiles) == 0 {
		fmt.Println("No stored profiles.")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(profiles) == 1 {
		profile := profiles[0]
		fmt.Printf("Remove profile %q? (y/N): ", profile.Name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(profile.Name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Profile removed:", profile.Name)
		return
	}

	fmt.Println("Select profile to remove:")
	for i, profile := range profiles {
		fmt.Printf("  %d. %s\n", i+1, profile.Name)
	}
	fmt.Printf("  %d. Remove all profiles\n", len(profiles)+1)
	fmt.Println("  0. Cancel")
	fmt.Print("\nChoice: ")

	input, _ := reader.ReadString('\n')
	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(profiles)+1:
		fmt.Print("Remove ALL profiles? This cannot be undone. (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove profiles: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("All profiles removed.")
	case choice > 0 && choice <= len(profiles):
		profile := profiles[choice-1]
		if err := manager.Delete(profile.Name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Profile removed:", profile.Name)
	default:
		fmt.Fprintln(os.Stderr, "invalid choice")
		os.Exit(1)
	}
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize credential manager: %v\n", err)
		os.Exit(1)
	}

	profiles, err := manager.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list profiles: %v\n", err)
		os.Exit(1)
	}

	if len(profiles) == 0 {
		fmt.Println("No stored profiles. Use 'untappd-data auth login' to add one.")
		return
	}

	fmt.Println("Stored profiles:")
	fmt.Println()
	for i, profile := range profiles {
		sanitized := auth.SanitizeProfile(profile)
		fmt.Printf("%d. %s\n", i+1, sanitized.Name)
		if sanitized.AccessKeyID != "" {
			fmt.Printf("   Access key ID: %s\n", sanitized.AccessKeyID)
			fmt.Printf("   Secret access key: %s\n", sanitized.SecretAccessKey)
		}
		if sanitized.FoursquareClientID != "" {
			fmt.Printf("   Foursquare client ID: %s\n", sanitized.FoursquareClientID)
			fmt.Printf("   Foursquare client secret: %s\n", sanitized.FoursquareClientSecret)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// readSecret reads a secret from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
