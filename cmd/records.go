package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/service"
)

var recordFlags struct {
	kind             string
	name             string
	firstName        string
	lastName         string
	email            string
	phone            string
	placeID          string
	address          string
	ignoreDuplicates bool
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage leads, contacts and accounts",
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a record, blocking on detected duplicates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.records.Create(ctx, candidateFromFlags())
		if err != nil {
			if dup, ok := service.AsDuplicateError(err); ok {
				fmt.Println("possible duplicates found; use --ignore-duplicates to create anyway:")
				printRecords(dup.Matches)
				return eris.New("record not created")
			}
			return err
		}

		zap.L().Info("record created",
			zap.String("id", rec.ID),
			zap.String("kind", string(rec.Kind)),
		)
		fmt.Println(rec.ID)
		return nil
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a record, blocking on detected duplicates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.records.Update(ctx, args[0], candidateFromFlags())
		if err != nil {
			if dup, ok := service.AsDuplicateError(err); ok {
				fmt.Println("update matches other records; use --ignore-duplicates to apply anyway:")
				printRecords(dup.Matches)
				return eris.New("record not updated")
			}
			return err
		}

		zap.L().Info("record updated", zap.String("id", rec.ID))
		return nil
	},
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records of a kind",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		kind := model.RecordKind(recordFlags.kind)
		if !kind.Valid() {
			return eris.Errorf("invalid kind %q", recordFlags.kind)
		}

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := e.store.ListRecords(ctx, kind)
		if err != nil {
			return err
		}
		printRecords(records)
		return nil
	},
}

var recordsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for duplicates without creating anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		matches, err := e.records.FindDuplicates(ctx, candidateFromFlags())
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no duplicates found")
			return nil
		}
		printRecords(matches)
		return nil
	},
}

func candidateFromFlags() model.Candidate {
	return model.Candidate{
		Kind:             model.RecordKind(recordFlags.kind),
		Name:             recordFlags.name,
		FirstName:        recordFlags.firstName,
		LastName:         recordFlags.lastName,
		Email:            recordFlags.email,
		Phone:            recordFlags.phone,
		PlaceID:          recordFlags.placeID,
		Address:          recordFlags.address,
		IgnoreDuplicates: recordFlags.ignoreDuplicates,
	}
}

func printRecords(records []model.Record) {
	for _, r := range records {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.DisplayName(), r.Email, r.Phone)
	}
}

func init() {
	for _, c := range []*cobra.Command{recordsCreateCmd, recordsUpdateCmd, recordsListCmd, recordsCheckCmd} {
		c.Flags().StringVar(&recordFlags.kind, "kind", "lead", "record kind: lead, contact or account")
	}
	for _, c := range []*cobra.Command{recordsCreateCmd, recordsUpdateCmd, recordsCheckCmd} {
		c.Flags().StringVar(&recordFlags.name, "name", "", "company or full name")
		c.Flags().StringVar(&recordFlags.firstName, "first-name", "", "first name (contacts)")
		c.Flags().StringVar(&recordFlags.lastName, "last-name", "", "last name (contacts)")
		c.Flags().StringVar(&recordFlags.email, "email", "", "email address")
		c.Flags().StringVar(&recordFlags.phone, "phone", "", "phone number")
		c.Flags().StringVar(&recordFlags.placeID, "place-id", "", "maps place ID")
		c.Flags().StringVar(&recordFlags.address, "address", "", "street address")
	}
	for _, c := range []*cobra.Command{recordsCreateCmd, recordsUpdateCmd} {
		c.Flags().BoolVar(&recordFlags.ignoreDuplicates, "ignore-duplicates", false, "create or update even when duplicates are detected")
	}

	recordsCmd.AddCommand(recordsCreateCmd, recordsUpdateCmd, recordsListCmd, recordsCheckCmd)
	rootCmd.AddCommand(recordsCmd)
}
