package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/occydefi/solagent-economy/sdk/go/solagent"
)

const usage = `usage: sactl <command> [flags]

commands:
  register   --base <url> --authority <key> --name <name> [--endpoint <url>] [--capability <c>]...
  agent      --base <url> --id <agent_id>
  balance    --base <url> --id <agent_id>
  stake      --base <url> --token <token> --id <agent_id> --amount <lamports>
  service    --base <url> --token <token> --title <t> --price <lamports> --model <FIXED|PER_REQUEST|PER_SECOND|PER_TOKEN|AUCTION> [--tag <t>]...
  services   --base <url> [--tag <t>]
  pay        --base <url> --token <token> --service <svc_id> --amount <lamports> --timeout <seconds> [--intent <text>]
  release    --base <url> --token <token> --payment <pay_id>
  refund     --base <url> --token <token> --payment <pay_id>
  stream     --base <url> --token <token> --receiver <agent_id> --rate <lamports/s> --duration <seconds> --deposit <lamports>
  withdraw   --base <url> --token <token> --stream <str_id>
  feedback   --base <url> --token <token> --ratee <agent_id> --rating <1-5> [--comment <text>]
  protocol   --base <url> [--init-authority <key>]
`

type repeatStringFlag []string

func (r *repeatStringFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatStringFlag) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	*r = append(*r, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(ctx, os.Args[2:])
	case "agent":
		err = runAgent(ctx, os.Args[2:])
	case "balance":
		err = runBalance(ctx, os.Args[2:])
	case "stake":
		err = runStake(ctx, os.Args[2:])
	case "service":
		err = runService(ctx, os.Args[2:])
	case "services":
		err = runServices(ctx, os.Args[2:])
	case "pay":
		err = runPay(ctx, os.Args[2:])
	case "release":
		err = runRelease(ctx, os.Args[2:])
	case "refund":
		err = runRefund(ctx, os.Args[2:])
	case "stream":
		err = runStream(ctx, os.Args[2:])
	case "withdraw":
		err = runWithdraw(ctx, os.Args[2:])
	case "feedback":
		err = runFeedback(ctx, os.Args[2:])
	case "protocol":
		err = runProtocol(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	base := fs.String("base", envOr("SOLAGENT_BASE_URL", "http://localhost:8080"), "service base URL")
	token := fs.String("token", os.Getenv("SOLAGENT_TOKEN"), "agent bearer token")
	return fs, base, token
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func runRegister(ctx context.Context, args []string) error {
	fs, base, _ := newFlagSet("register")
	authority := fs.String("authority", "", "authority key controlling the agent's funds")
	name := fs.String("name", "", "display name")
	description := fs.String("description", "", "description")
	endpoint := fs.String("endpoint", "", "service endpoint URL")
	var capabilities repeatStringFlag
	fs.Var(&capabilities, "capability", "capability (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *authority == "" || *name == "" {
		return fmt.Errorf("--authority and --name are required")
	}
	c := solagent.NewClient(*base)
	out, err := c.RegisterAgent(ctx, solagent.RegisterAgentRequest{
		Authority:    *authority,
		Name:         *name,
		Description:  *description,
		Capabilities: capabilities,
		Endpoint:     *endpoint,
	})
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runAgent(ctx context.Context, args []string) error {
	fs, base, _ := newFlagSet("agent")
	id := fs.String("id", "", "agent id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	out, err := solagent.NewClient(*base).GetAgent(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runBalance(ctx context.Context, args []string) error {
	fs, base, _ := newFlagSet("balance")
	id := fs.String("id", "", "agent id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	out, err := solagent.NewClient(*base).GetBalance(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runStake(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("stake")
	id := fs.String("id", "", "agent id")
	amount := fs.Uint64("amount", 0, "lamports to stake")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *amount == 0 {
		return fmt.Errorf("--id and --amount are required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.Stake(ctx, *id, *amount, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runService(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("service")
	title := fs.String("title", "", "listing title")
	description := fs.String("description", "", "description")
	price := fs.Uint64("price", 0, "price in lamports")
	model := fs.String("model", "FIXED", "price model")
	var tags repeatStringFlag
	fs.Var(&tags, "tag", "tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.CreateService(ctx, solagent.CreateServiceRequest{
		Title:         *title,
		Description:   *description,
		PriceLamports: *price,
		PriceModel:    *model,
		Tags:          tags,
	}, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runServices(ctx context.Context, args []string) error {
	fs, base, _ := newFlagSet("services")
	tag := fs.String("tag", "", "filter by tag")
	limit := fs.Int("limit", 0, "max results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out, err := solagent.NewClient(*base).ListServices(ctx, *tag, *limit)
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runPay(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("pay")
	service := fs.String("service", "", "service id")
	amount := fs.Uint64("amount", 0, "lamports to escrow")
	timeout := fs.Int64("timeout", 3600, "escrow timeout in seconds")
	intent := fs.String("intent", "", "payment intent")
	var conditions repeatStringFlag
	fs.Var(&conditions, "condition", "release condition (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *service == "" || *amount == 0 {
		return fmt.Errorf("--service and --amount are required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.CreatePayment(ctx, solagent.CreatePaymentRequest{
		ServiceID:      *service,
		Amount:         *amount,
		Intent:         *intent,
		Conditions:     conditions,
		TimeoutSeconds: *timeout,
	}, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runRelease(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("release")
	payment := fs.String("payment", "", "payment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *payment == "" {
		return fmt.Errorf("--payment is required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.ReleasePayment(ctx, *payment, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runRefund(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("refund")
	payment := fs.String("payment", "", "payment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *payment == "" {
		return fmt.Errorf("--payment is required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.RefundPayment(ctx, *payment, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runStream(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("stream")
	receiver := fs.String("receiver", "", "receiver agent id")
	rate := fs.Uint64("rate", 0, "lamports per second")
	duration := fs.Uint64("duration", 0, "max duration in seconds")
	deposit := fs.Uint64("deposit", 0, "deposit in lamports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *receiver == "" || *rate == 0 || *deposit == 0 {
		return fmt.Errorf("--receiver, --rate, and --deposit are required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.OpenStream(ctx, solagent.OpenStreamRequest{
		ReceiverID:         *receiver,
		RatePerSecond:      *rate,
		MaxDurationSeconds: *duration,
		Deposit:            *deposit,
	}, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runWithdraw(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("withdraw")
	stream := fs.String("stream", "", "stream id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stream == "" {
		return fmt.Errorf("--stream is required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.WithdrawStream(ctx, *stream, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runFeedback(ctx context.Context, args []string) error {
	fs, base, token := newFlagSet("feedback")
	ratee := fs.String("ratee", "", "agent being rated")
	rating := fs.Uint("rating", 0, "rating 1-5")
	comment := fs.String("comment", "", "comment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ratee == "" || *rating == 0 {
		return fmt.Errorf("--ratee and --rating are required")
	}
	c := solagent.NewClient(*base, solagent.WithToken(*token))
	out, err := c.SubmitFeedback(ctx, solagent.SubmitFeedbackRequest{
		RateeID: *ratee,
		Rating:  uint8(*rating),
		Comment: *comment,
	}, solagent.NewIdempotencyKey())
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func runProtocol(ctx context.Context, args []string) error {
	fs, base, _ := newFlagSet("protocol")
	initAuthority := fs.String("init-authority", "", "initialize the protocol with this authority")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := solagent.NewClient(*base)
	if *initAuthority != "" {
		out, err := c.InitProtocol(ctx, *initAuthority)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	}
	out, err := c.GetProtocol(ctx)
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}
