package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/luminastudy/lumina/core/account"
)

// The operator owns the store; directory mutations run with admin privileges.

func (cli *commandLine) listAccounts() error {
	accounts, err := cli.dir.All()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tFLAGGED\tCREATED")
	for _, acct := range accounts {
		_, _ = fmt.Fprintf(
			w, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			acct.ID, acct.Email, acct.Name, acct.Role, acct.Status, acct.IsFlagged,
			acct.CreatedAt.Format("2006-01-02"),
		)
	}
	return w.Flush()
}

func (cli *commandLine) setRole(id, role string) error {
	newRole := account.Role(role)
	if !newRole.Valid() {
		return fmt.Errorf("%q: no such role", role)
	}
	acct, err := cli.dir.SetRole(account.RoleAdmin, id, newRole)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now a %s\n", acct.Email, acct.Role)
	return nil
}

func (cli *commandLine) toggleStatus(id string) error {
	acct, err := cli.dir.ToggleStatus(account.RoleAdmin, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", acct.Email, acct.Status)
	return nil
}

func (cli *commandLine) toggleFlag(id string) error {
	acct, err := cli.dir.ToggleFlag(account.RoleAdmin, id)
	if err != nil {
		return err
	}
	if acct.IsFlagged {
		fmt.Printf("%s is flagged\n", acct.Email)
	} else {
		fmt.Printf("%s is no longer flagged\n", acct.Email)
	}
	return nil
}
