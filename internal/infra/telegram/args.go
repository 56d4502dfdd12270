package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func parseBicycleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bicycle ID must be a positive number, got %q", arg)
	}
	return id, nil
}

// optionalCount reads args[i] as a positive count, falling back to def when absent.
func optionalCount(args []string, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a positive number, got %q", args[i])
	}
	return n, nil
}

// optionalAmount reads args[i] as a money amount, falling back to def when absent.
// A leading pound sign is accepted.
func optionalAmount(args []string, i int, def decimal.Decimal) (decimal.Decimal, error) {
	if len(args) <= i {
		return def, nil
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(args[i], "£"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("expected an amount, got %q", args[i])
	}
	return amount, nil
}
