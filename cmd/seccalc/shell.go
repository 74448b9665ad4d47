package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nvoronin/seccalc/pkg/audit"
	"github.com/nvoronin/seccalc/pkg/auth"
	"github.com/nvoronin/seccalc/pkg/users"
)

// Shell is the interactive menu presented after a successful login.
type Shell struct {
	session *auth.Session
	store   *users.Store
	auth    *auth.Authenticator
	audit   *audit.Logger
	in      *bufio.Scanner
	out     io.Writer
}

func NewShell(session *auth.Session, store *users.Store, authenticator *auth.Authenticator, auditLog *audit.Logger, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		session: session,
		store:   store,
		auth:    authenticator,
		audit:   auditLog,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run drives the main menu until the user exits or input closes.
func (s *Shell) Run() {
	isAdmin := s.session.HasPermission(users.Admin)

	for {
		fmt.Fprintln(s.out, "\n=== MAIN MENU ===")
		fmt.Fprintln(s.out, "1. Calculator")
		fmt.Fprintln(s.out, "2. Change password")
		if isAdmin {
			fmt.Fprintln(s.out, "3. Admin panel")
			fmt.Fprintln(s.out, "4. Exit")
		} else {
			fmt.Fprintln(s.out, "3. Exit")
		}

		maxChoice := 3
		if isAdmin {
			maxChoice = 4
		}
		choice, ok := s.promptChoice(1, maxChoice)
		if !ok {
			return
		}

		switch {
		case choice == 1:
			s.runCalculator()
		case choice == 2:
			s.changePassword()
		case choice == 3 && isAdmin:
			s.runAdminPanel()
		default:
			fmt.Fprintln(s.out, "Logging out...")
			return
		}
	}
}

func (s *Shell) runCalculator() {
	for {
		s.printCalculatorMenu()

		line, ok := s.prompt("\nEnter operation: ")
		if !ok {
			return
		}
		if line == "q" || line == "Q" {
			fmt.Fprintln(s.out, "Leaving the calculator.")
			return
		}
		if len(line) != 1 {
			fmt.Fprintln(s.out, "ERROR: unsupported operation")
			continue
		}
		op := rune(line[0])

		required, err := RequiredRole(op)
		if err != nil {
			fmt.Fprintln(s.out, "ERROR: unsupported operation")
			continue
		}
		if !s.session.HasPermission(required) {
			fmt.Fprintln(s.out, "ERROR: insufficient permissions for this operation!")
			s.audit.SecurityEvent("Permission denied",
				fmt.Sprintf("user=%s operation=%c", s.session.Username, op))
			continue
		}

		if IsUnary(op) {
			s.runUnaryOperation(op)
		} else {
			s.runBinaryOperation(op)
		}
	}
}

func (s *Shell) printCalculatorMenu() {
	fmt.Fprintln(s.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(s.out, "    SCIENTIFIC CALCULATOR")
	fmt.Fprintf(s.out, "Role: %s\n", s.session.Role)
	fmt.Fprintln(s.out, strings.Repeat("=", 50))
	fmt.Fprintln(s.out, "Supported operations:")
	fmt.Fprintln(s.out, "  +  - Addition")
	fmt.Fprintln(s.out, "  -  - Subtraction")
	fmt.Fprintln(s.out, "  *  - Multiplication")
	fmt.Fprintln(s.out, "  /  - Division")
	if s.session.HasPermission(users.User) {
		fmt.Fprintln(s.out, "  !  - Factorial (integers only)")
	}
	if s.session.HasPermission(users.Admin) {
		fmt.Fprintln(s.out, "  ^  - Exponentiation")
		fmt.Fprintln(s.out, "  s  - Square root")
		fmt.Fprintln(s.out, "  l  - Natural logarithm")
	}
	fmt.Fprintln(s.out, "  q  - Quit")
	fmt.Fprintln(s.out, strings.Repeat("=", 50))
}

func (s *Shell) runBinaryOperation(op rune) {
	a, ok := s.promptFloat("Enter the first number: ")
	if !ok {
		return
	}
	b, ok := s.promptFloat("Enter the second number: ")
	if !ok {
		return
	}

	result, err := Calculate(op, a, b)
	if err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "\n%g %c %g = %g\n", a, op, b, result)
}

func (s *Shell) runUnaryOperation(op rune) {
	n, ok := s.promptFloat("Enter the number: ")
	if !ok {
		return
	}

	result, err := CalculateUnary(op, n)
	if err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return
	}
	switch op {
	case OpFactorial:
		fmt.Fprintf(s.out, "\n%d! = %g\n", int(n), result)
	case OpSqrt:
		fmt.Fprintf(s.out, "\nsqrt(%g) = %g\n", n, result)
	case OpLog:
		fmt.Fprintf(s.out, "\nln(%g) = %g\n", n, result)
	}
}

func (s *Shell) changePassword() {
	fmt.Fprintln(s.out, "\n=== CHANGE PASSWORD ===")

	current, ok := s.prompt("Current password: ")
	if !ok {
		return
	}
	newPassword, ok := s.prompt("New password: ")
	if !ok {
		return
	}
	confirm, ok := s.prompt("Confirm new password: ")
	if !ok {
		return
	}

	if err := s.auth.ChangePassword(s.session, current, newPassword, confirm); err != nil {
		fmt.Fprintf(s.out, "Password change failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Password changed successfully.")
}

func (s *Shell) runAdminPanel() {
	for {
		fmt.Fprintln(s.out, "\n=== ADMIN PANEL ===")
		fmt.Fprintln(s.out, "1. Add user")
		fmt.Fprintln(s.out, "2. List users")
		fmt.Fprintln(s.out, "3. Change user role")
		fmt.Fprintln(s.out, "4. Block/unblock user")
		fmt.Fprintln(s.out, "5. Delete user")
		fmt.Fprintln(s.out, "6. Address lockout statistics")
		fmt.Fprintln(s.out, "7. Save user database")
		fmt.Fprintln(s.out, "0. Back")

		choice, ok := s.promptChoice(0, 7)
		if !ok {
			return
		}

		switch choice {
		case 1:
			s.adminAddUser()
		case 2:
			s.adminListUsers()
		case 3:
			s.adminChangeRole()
		case 4:
			s.adminToggleActive()
		case 5:
			s.adminDeleteUser()
		case 6:
			s.adminAddressStats()
		case 7:
			s.adminSave()
		case 0:
			return
		}
	}
}

func (s *Shell) adminAddUser() {
	login, ok := s.prompt("New login: ")
	if !ok {
		return
	}

	var password string
	for {
		password, ok = s.prompt("New password: ")
		if !ok {
			return
		}
		result := s.auth.Policy().Validate(password)
		if result.Valid {
			break
		}
		fmt.Fprintf(s.out, "Password rejected: %s\n", result.Message)
	}

	roleChoice, ok := s.promptInt("Role (0 - Guest, 1 - User, 2 - Admin): ")
	if !ok {
		return
	}
	role, err := users.ParseRole(roleChoice)
	if err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return
	}

	if err := s.store.AddUser(login, password, role); err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "User %s added.\n", login)
	s.audit.AdminAction(s.session.Username, "add_user", login)
}

func (s *Shell) adminListUsers() {
	fmt.Fprintln(s.out, "\nRegistered users:")
	fmt.Fprintln(s.out, strings.Repeat("-", 50))
	fmt.Fprintf(s.out, "%-15s %-20s %-15s\n", "Login", "Role", "Status")
	fmt.Fprintln(s.out, strings.Repeat("-", 50))
	for _, account := range s.store.Accounts() {
		status := "Active"
		if !account.Active {
			status = "Blocked"
		}
		fmt.Fprintf(s.out, "%-15s %-20s %-15s\n", account.Login, account.Role, status)
	}
}

func (s *Shell) adminChangeRole() {
	login, ok := s.prompt("User login: ")
	if !ok {
		return
	}
	account, exists := s.store.Get(login)
	if !exists {
		fmt.Fprintln(s.out, "User not found!")
		return
	}

	fmt.Fprintf(s.out, "Current role: %s\n", account.Role)
	roleChoice, ok := s.promptInt("New role (0 - Guest, 1 - User, 2 - Admin): ")
	if !ok {
		return
	}
	role, err := users.ParseRole(roleChoice)
	if err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
		return
	}

	if !s.store.UpdateRole(login, role) {
		fmt.Fprintln(s.out, "Failed to change role!")
		return
	}
	fmt.Fprintf(s.out, "Role of %s changed to %s.\n", login, role)
	s.audit.AdminAction(s.session.Username, "change_role", login)
}

func (s *Shell) adminToggleActive() {
	login, ok := s.prompt("User login: ")
	if !ok {
		return
	}
	if _, exists := s.store.Get(login); !exists {
		fmt.Fprintln(s.out, "User not found!")
		return
	}

	if !s.store.ToggleActive(login) {
		fmt.Fprintln(s.out, "Failed to change status!")
		return
	}
	account, _ := s.store.Get(login)
	if account.Active {
		fmt.Fprintf(s.out, "User %s is now active.\n", login)
		s.audit.AdminAction(s.session.Username, "unblock_user", login)
	} else {
		fmt.Fprintf(s.out, "User %s is now blocked.\n", login)
		s.audit.AdminAction(s.session.Username, "block_user", login)
	}
}

func (s *Shell) adminDeleteUser() {
	login, ok := s.prompt("Login to delete: ")
	if !ok {
		return
	}
	if login == s.session.Username {
		fmt.Fprintln(s.out, "You cannot delete your own account!")
		return
	}
	if !s.store.DeleteUser(login) {
		fmt.Fprintln(s.out, "User not found!")
		return
	}
	fmt.Fprintf(s.out, "User %s deleted.\n", login)
	s.audit.AdminAction(s.session.Username, "delete_user", login)
}

func (s *Shell) adminAddressStats() {
	fmt.Fprintln(s.out, "\n=== SECURITY STATISTICS ===")
	fmt.Fprintf(s.out, "Session address: %s\n", s.session.SourceAddress)

	failures, locked, remaining := s.auth.AddressStatus(s.session.SourceAddress)
	fmt.Fprintf(s.out, "Failed attempts from this address: %d\n", failures)
	if locked {
		fmt.Fprintf(s.out, "Status: LOCKED (unlocks in %d seconds)\n",
			int(remaining.Seconds()))
	} else {
		fmt.Fprintln(s.out, "Status: ACTIVE")
	}
}

func (s *Shell) adminSave() {
	if err := s.store.Save(); err != nil {
		fmt.Fprintf(s.out, "Failed to save user database: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "User database saved.")
	s.audit.AdminAction(s.session.Username, "save_database", "")
}

// prompt reads one trimmed line; ok is false once input is exhausted
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) promptInt(label string) (int, bool) {
	for {
		line, ok := s.prompt(label)
		if !ok {
			return 0, false
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(s.out, "Please enter a whole number.")
			continue
		}
		return value, true
	}
}

func (s *Shell) promptFloat(label string) (float64, bool) {
	for {
		line, ok := s.prompt(label)
		if !ok {
			return 0, false
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintln(s.out, "Please enter a number.")
			continue
		}
		return value, true
	}
}

func (s *Shell) promptChoice(min, max int) (int, bool) {
	for {
		value, ok := s.promptInt("Select: ")
		if !ok {
			return 0, false
		}
		if value < min || value > max {
			fmt.Fprintf(s.out, "Enter a number between %d and %d.\n", min, max)
			continue
		}
		return value, true
	}
}
