package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/validation"
)

func newProfileCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the authenticated profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Fetch and print the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			user, err := deps.API.Profile(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("ID:       %s\n", user.ID)
			cmd.Printf("Email:    %s\n", user.Email)
			if user.FullName != "" {
				cmd.Printf("Name:     %s\n", user.FullName)
			}
			if user.Age > 0 {
				cmd.Printf("Age:      %d\n", user.Age)
			}
			if user.Country != "" {
				cmd.Printf("Country:  %s\n", user.Country)
			}
			if len(user.Interests) > 0 {
				cmd.Printf("Interests: %s\n", strings.Join(user.Interests, ", "))
			}
			if user.PrivacyMode != "" {
				cmd.Printf("Privacy:  %s\n", user.PrivacyMode)
			}
			return nil
		},
	}

	var (
		fullName    string
		age         string
		country     string
		language    string
		interests   []string
		privacyMode string
	)

	update := &cobra.Command{
		Use:   "update",
		Short: "Apply a partial profile update",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}

			var payload api.ProfileUpdate
			changed := false

			if cmd.Flags().Changed("name") {
				if msg := validation.FullName(fullName); msg != "" {
					return fmt.Errorf("name: %s", msg)
				}
				payload.FullName = &fullName
				changed = true
			}
			if cmd.Flags().Changed("age") {
				if msg := validation.Age(age); msg != "" {
					return fmt.Errorf("age: %s", msg)
				}
				parsed, _ := strconv.Atoi(age)
				payload.Age = &parsed
				changed = true
			}
			if cmd.Flags().Changed("country") {
				payload.Country = &country
				changed = true
			}
			if cmd.Flags().Changed("language") {
				payload.PreferredLanguage = &language
				changed = true
			}
			if cmd.Flags().Changed("interests") {
				payload.Interests = interests
				changed = true
			}
			if cmd.Flags().Changed("privacy") {
				if privacyMode != "public" && privacyMode != "private" {
					return fmt.Errorf("privacy must be public or private")
				}
				payload.PrivacyMode = &privacyMode
				changed = true
			}

			if !changed {
				return fmt.Errorf("nothing to update; pass at least one flag")
			}

			user, err := deps.API.UpdateProfile(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if err := deps.Auth.UpdateUser(user); err != nil {
				return err
			}
			cmd.Println("Profile updated.")
			return nil
		},
	}

	update.Flags().StringVar(&fullName, "name", "", "full name")
	update.Flags().StringVar(&age, "age", "", "age in years")
	update.Flags().StringVar(&country, "country", "", "country")
	update.Flags().StringVar(&language, "language", "", "preferred language")
	update.Flags().StringSliceVar(&interests, "interests", nil, "comma-separated interests")
	update.Flags().StringVar(&privacyMode, "privacy", "", "privacy mode: public or private")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			confirm, err := promptLine("Type DELETE to confirm")
			if err != nil {
				return err
			}
			if confirm != "DELETE" {
				return fmt.Errorf("aborted")
			}
			if err := deps.API.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			if err := deps.Auth.Logout(); err != nil {
				return err
			}
			cmd.Println("Account deleted.")
			return nil
		},
	}

	cmd.AddCommand(show, update, del)
	return cmd
}

func newUploadCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			upload, err := deps.API.UploadMedia(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			cmd.Printf("Uploaded: %s\n", upload.URL)
			return nil
		},
	}
}

func newFriendsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Friend request actions",
	}

	var accept bool
	respond := &cobra.Command{
		Use:   "respond <request-id>",
		Short: "Accept or reject a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			if err := deps.API.RespondFriendRequest(cmd.Context(), args[0], accept); err != nil {
				return err
			}
			if accept {
				cmd.Println("Friend request accepted.")
			} else {
				cmd.Println("Friend request rejected.")
			}
			return nil
		},
	}
	respond.Flags().BoolVar(&accept, "accept", false, "accept instead of reject")

	cmd.AddCommand(respond)
	return cmd
}
