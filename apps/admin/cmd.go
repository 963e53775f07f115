package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/account"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	dir  *account.Directory
	db   *sql.DB // set only for the postgres storage engine
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addaccount -email EMAIL [-name NAME] - create or re-enable an account")
	fmt.Println("  listaccounts - print the account roster")
	fmt.Println("  setrole -id ID -role ROLE - set an account's role")
	fmt.Println("  togglestatus -id ID - enable/disable an account")
	fmt.Println("  toggleflag -id ID - flag/unflag an account")
	fmt.Println("  migrate COMMAND [ARGS] - run storage migrations (postgres engine only)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAccountCmd := flag.NewFlagSet("addaccount", flag.ExitOnError)
	addAccountEmail := addAccountCmd.String("email", "", "The account's email. The password will be prompted next.")
	addAccountName := addAccountCmd.String("name", "", "The account holder's name. Defaults to the email's local part.")

	setRoleCmd := flag.NewFlagSet("setrole", flag.ExitOnError)
	setRoleID := setRoleCmd.String("id", "", "The target account's id.")
	setRoleRole := setRoleCmd.String("role", "", "One of: user, moderator, admin, premium.")

	toggleStatusCmd := flag.NewFlagSet("togglestatus", flag.ExitOnError)
	toggleStatusID := toggleStatusCmd.String("id", "", "The target account's id.")

	toggleFlagCmd := flag.NewFlagSet("toggleflag", flag.ExitOnError)
	toggleFlagID := toggleFlagCmd.String("id", "", "The target account's id.")

	switch args[1] {
	case "addaccount":
		if err := addAccountCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAccountEmail == "" {
			addAccountCmd.Usage()
			return errHelp
		}
		// the password is prompted for parity with the register form;
		// no credential is stored.
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAccountCmd.Usage()
			return errHelp
		}
		return cli.addAccount(*addAccountEmail, *addAccountName)
	case "listaccounts":
		return cli.listAccounts()
	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setRoleID == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		return cli.setRole(*setRoleID, *setRoleRole)
	case "togglestatus":
		if err := toggleStatusCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *toggleStatusID == "" {
			toggleStatusCmd.Usage()
			return errHelp
		}
		return cli.toggleStatus(*toggleStatusID)
	case "toggleflag":
		if err := toggleFlagCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *toggleFlagID == "" {
			toggleFlagCmd.Usage()
			return errHelp
		}
		return cli.toggleFlag(*toggleFlagID)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
