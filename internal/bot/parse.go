package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// StoreArgs holds the parsed arguments of the /addstore command.
type StoreArgs struct {
	Name          string
	URL           string
	ScraperRef    string
	IntervalHours int
}

// ParseStoreArgs parses arguments for /addstore.
// Format: <name> <url> <adapter> [interval_hours]
func ParseStoreArgs(args string) (StoreArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		return StoreArgs{}, fmt.Errorf("usage: /addstore <name> <url> <adapter> [interval_hours]")
	}

	sa := StoreArgs{
		Name:          parts[0],
		URL:           parts[1],
		ScraperRef:    parts[2],
		IntervalHours: 24,
	}
	if !strings.HasPrefix(sa.URL, "http://") && !strings.HasPrefix(sa.URL, "https://") {
		return StoreArgs{}, fmt.Errorf("invalid store URL %q", sa.URL)
	}

	if len(parts) >= 4 {
		hours, err := strconv.Atoi(parts[3])
		if err != nil || hours < 1 || hours > 168 {
			return StoreArgs{}, fmt.Errorf("interval must be between 1 and 168 hours")
		}
		sa.IntervalHours = hours
	}
	return sa, nil
}

// ProductArgs holds the parsed arguments of the /addproduct command.
type ProductArgs struct {
	Name     string
	Keywords []string
}

// ParseProductArgs parses arguments for /addproduct.
// Format: <name> [| keyword1, keyword2, ...]
func ParseProductArgs(args string) (ProductArgs, error) {
	name, rawKeywords, _ := strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return ProductArgs{}, fmt.Errorf("usage: /addproduct <name> [| keyword1, keyword2]")
	}

	pa := ProductArgs{Name: name}
	for _, k := range strings.Split(rawKeywords, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			pa.Keywords = append(pa.Keywords, k)
		}
	}
	return pa, nil
}

// ParseTrendArgs extracts a product ID and an optional day window.
// Format: <product_id> [days], days defaulting to 7.
func ParseTrendArgs(args string) (int64, int, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return 0, 0, fmt.Errorf("usage: /trend <product_id> [days]")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product ID %q", parts[0])
	}

	days := 7
	if len(parts) >= 2 {
		days, err = strconv.Atoi(parts[1])
		if err != nil || days < 1 || days > 365 {
			return 0, 0, fmt.Errorf("days must be between 1 and 365")
		}
	}
	return id, days, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
