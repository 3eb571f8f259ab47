package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/grpc"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/tui/client"
)

type env struct {
	ctx  context.Context
	c    *client.Client
	json bool
}

type command struct {
	usage     string
	help      string
	streaming bool
	run       func(e *env, args []string) error
}

var commandOrder = []string{
	"list", "show", "new", "request", "submit", "approve", "reject",
	"send", "meet", "returned", "karma", "handoff", "search", "watch",
	"signup", "signin", "profile", "update-profile",
}

var commands = map[string]command{
	"list":           {usage: "list", help: "List conversations", run: cmdList},
	"show":           {usage: "show <id>", help: "Show a conversation thread", run: cmdShow},
	"new":            {usage: "new --item <name> --finder <id> ...", help: "Open a conversation with a finder", run: cmdNew},
	"request":        {usage: "request <id>", help: "Ask the owner to verify", run: intentCmd((*api.ClaimServiceClient).RequestVerification)},
	"submit":         {usage: "submit <id> --details <text>|--photo <uri>", help: "Submit ownership verification", run: cmdSubmit},
	"approve":        {usage: "approve <id>", help: "Approve the latest submission", run: intentCmd((*api.ClaimServiceClient).ApproveVerification)},
	"reject":         {usage: "reject <id>", help: "Reject the latest submission", run: intentCmd((*api.ClaimServiceClient).RejectVerification)},
	"send":           {usage: "send <id> [--as finder] [--photo <uri>] <text>", help: "Send a chat message", run: cmdSend},
	"meet":           {usage: "meet <id> [--as finder] <text>", help: "Propose a meetup", run: cmdMeet},
	"returned":       {usage: "returned <id>|--token <token>", help: "Mark the item returned", run: cmdReturned},
	"karma":          {usage: "karma <id>", help: "Give karma to the finder", run: intentCmd((*api.ClaimServiceClient).GiveKarma)},
	"handoff":        {usage: "handoff <id> [--png <path>]", help: "Issue a handoff QR code", run: cmdHandoff},
	"search":         {usage: "search [--in <id>] [--limit n] <query>", help: "Search message text", run: cmdSearch},
	"watch":          {usage: "watch <id>", help: "Stream conversation updates", streaming: true, run: cmdWatch},
	"signup":         {usage: "signup --email <e> --password <p> ...", help: "Create an account", run: cmdSignUp},
	"signin":         {usage: "signin --email <e> --password <p>", help: "Sign in", run: cmdSignIn},
	"profile":        {usage: "profile <user-id>", help: "Show a profile and karma", run: cmdProfile},
	"update-profile": {usage: "update-profile <user-id> [--image <path>] ...", help: "Edit a profile", run: cmdUpdateProfile},
}

// parse accepts "<cmd> <id> --flags" as well as "<cmd> --flags <id>".
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var lead []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		lead = append(lead, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return append(lead, fs.Args()...), nil
}

func requireID(usage string, rest []string) (string, error) {
	if len(rest) == 0 {
		return "", fmt.Errorf("usage: lnfctl %s", usage)
	}
	return rest[0], nil
}

func cmdList(e *env, _ []string) error {
	resp, err := e.c.Claim.ListConversations(e.ctx, &api.ListConversationsRequest{})
	if err != nil {
		return err
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	printSummaries(os.Stdout, resp.Conversations)
	return nil
}

func cmdShow(e *env, args []string) error {
	id, err := requireID("show <id>", args)
	if err != nil {
		return err
	}
	resp, err := e.c.Claim.GetConversation(e.ctx, &api.ConversationRequest{ID: id})
	if err != nil {
		return err
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	printConversation(os.Stdout, resp)
	return nil
}

func cmdNew(e *env, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id (generated when empty)")
	item := fs.String("item", "", "item name")
	location := fs.String("location", "", "where the item was found")
	category := fs.String("category", "", "item category")
	finderID := fs.String("finder", "", "finder user id")
	finderName := fs.String("finder-name", "", "finder display name")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	resp, err := e.c.Claim.CreateConversation(e.ctx, &api.CreateConversationRequest{
		ID:     *id,
		Owner:  claim.DemoOwner,
		Finder: conversation.Participant{UserID: *finderID, Name: *finderName},
		Item:   conversation.Item{Name: *item, Location: *location, Category: *category},
	})
	if err != nil {
		return err
	}
	return printIntent(e, &api.IntentResponse{Applied: true, Conversation: *resp})
}

type intentFunc func(*api.ClaimServiceClient, context.Context, *api.ConversationRequest, ...grpc.CallOption) (*api.IntentResponse, error)

func intentCmd(fn intentFunc) func(*env, []string) error {
	return func(e *env, args []string) error {
		if len(args) == 0 {
			return errors.New("conversation id required")
		}
		resp, err := fn(e.c.Claim, e.ctx, &api.ConversationRequest{ID: args[0]})
		if err != nil {
			return err
		}
		return printIntent(e, resp)
	}
}

func cmdSubmit(e *env, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	details := fs.String("details", "", "identifying details")
	photo := fs.String("photo", "", "photo uri")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("submit <id> --details <text>|--photo <uri>", rest)
	if err != nil {
		return err
	}
	req := &api.SubmitVerificationRequest{ID: id, Method: conversation.MethodDetails, Details: *details}
	if *photo != "" {
		req.Method = conversation.MethodPhoto
		req.Image = *photo
		req.Details = ""
	}
	resp, err := e.c.Claim.SubmitVerification(e.ctx, req)
	if err != nil {
		return err
	}
	return printIntent(e, resp)
}

func cmdSend(e *env, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	as := fs.String("as", string(conversation.SenderOwner), "sender: owner or finder")
	photo := fs.String("photo", "", "attach an image uri")
	verify := fs.Bool("verification", false, "route the photo as a verification submission")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("send <id> [--as finder] [--photo <uri>] <text>", rest)
	if err != nil {
		return err
	}
	req := &api.SendMessageRequest{
		ID:     id,
		Sender: conversation.Sender(*as),
		Text:   strings.Join(rest[1:], " "),
	}
	if *photo != "" {
		req.Attachment = &conversation.Attachment{Kind: conversation.AttachmentImage, URI: *photo}
		req.Target = string(composer.TargetMessage)
		if *verify {
			req.Target = string(composer.TargetVerification)
		}
	}
	resp, err := e.c.Claim.SendMessage(e.ctx, req)
	if err != nil {
		return err
	}
	return printIntent(e, resp)
}

func cmdMeet(e *env, args []string) error {
	fs := flag.NewFlagSet("meet", flag.ContinueOnError)
	as := fs.String("as", string(conversation.SenderOwner), "sender: owner or finder")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("meet <id> [--as finder] <text>", rest)
	if err != nil {
		return err
	}
	resp, err := e.c.Claim.ProposeMeetup(e.ctx, &api.ProposeMeetupRequest{
		ID:     id,
		Sender: conversation.Sender(*as),
		Text:   strings.Join(rest[1:], " "),
	})
	if err != nil {
		return err
	}
	return printIntent(e, resp)
}

func cmdReturned(e *env, args []string) error {
	fs := flag.NewFlagSet("returned", flag.ContinueOnError)
	token := fs.String("token", "", "handoff token shown by the finder")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	var resp *api.IntentResponse
	if *token != "" {
		resp, err = e.c.Claim.RedeemHandoff(e.ctx, &api.RedeemHandoffRequest{Token: *token})
	} else {
		id, idErr := requireID("returned <id>|--token <token>", rest)
		if idErr != nil {
			return idErr
		}
		resp, err = e.c.Claim.MarkReturned(e.ctx, &api.ConversationRequest{ID: id})
	}
	if err != nil {
		return err
	}
	return printIntent(e, resp)
}

func cmdHandoff(e *env, args []string) error {
	fs := flag.NewFlagSet("handoff", flag.ContinueOnError)
	png := fs.String("png", "", "also write the QR code as a PNG")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("handoff <id> [--png <path>]", rest)
	if err != nil {
		return err
	}
	resp, err := e.c.Claim.IssueHandoff(e.ctx, &api.ConversationRequest{ID: id})
	if err != nil {
		return err
	}
	if *png != "" {
		if err := handoff.WriteQRFile(resp.Token, *png, 0); err != nil {
			return err
		}
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	fmt.Print(resp.QR)
	fmt.Printf("Token:   %s\n", resp.Token)
	fmt.Printf("Expires: %s\n", resp.ExpiresAt.Local().Format("Jan 2 15:04"))
	if *png != "" {
		fmt.Printf("PNG:     %s\n", *png)
	}
	return nil
}

func cmdSearch(e *env, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	in := fs.String("in", "", "restrict to one conversation")
	limit := fs.Int("limit", 0, "maximum results")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	resp, err := e.c.Claim.SearchMessages(e.ctx, &api.SearchMessagesRequest{
		Query:          strings.Join(rest, " "),
		ConversationID: *in,
		Limit:          *limit,
	})
	if err != nil {
		return err
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	if len(resp.Results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, r := range resp.Results {
		fmt.Printf("%-14s %-20s %s\n", r.ConversationID, r.Item, r.Snippet)
	}
	return nil
}

func cmdWatch(e *env, args []string) error {
	id, err := requireID("watch <id>", args)
	if err != nil {
		return err
	}
	stream, err := e.c.Claim.WatchConversation(e.ctx, &api.ConversationRequest{ID: id})
	if err != nil {
		return err
	}
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if e.json {
			outputJSON(ev)
			continue
		}
		fmt.Printf("[%s] %s  %s\n", ev.OccurredAt.Local().Format("15:04:05"), ev.Kind, ev.Conversation.Banner.Title)
		if msgs := ev.Conversation.Snapshot.Messages; len(msgs) > 0 {
			printMessage(os.Stdout, ev.Conversation.Snapshot, msgs[len(msgs)-1])
		}
	}
}

func cmdSignUp(e *env, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	req := &api.SignUpRequest{}
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Pronouns, "pronouns", "", "pronouns")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	resp, err := e.c.Profile.SignUp(e.ctx, req)
	if err != nil {
		return err
	}
	return printSession(e, resp)
}

func cmdSignIn(e *env, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	req := &api.SignInRequest{}
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	resp, err := e.c.Profile.SignIn(e.ctx, req)
	if err != nil {
		return err
	}
	return printSession(e, resp)
}

func cmdProfile(e *env, args []string) error {
	id, err := requireID("profile <user-id>", args)
	if err != nil {
		return err
	}
	resp, err := e.c.Profile.GetProfile(e.ctx, &api.ProfileRequest{UserID: id})
	if err != nil {
		return err
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	printUser(os.Stdout, resp.User)
	return nil
}

func cmdUpdateProfile(e *env, args []string) error {
	fs := flag.NewFlagSet("update-profile", flag.ContinueOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	pronouns := fs.String("pronouns", "", "pronouns")
	phone := fs.String("phone", "", "phone number")
	image := fs.String("image", "", "path to a profile image")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("update-profile <user-id> [flags]", rest)
	if err != nil {
		return err
	}
	req := &api.UpdateProfileRequest{UserID: id}
	// Only flags given on the command line are sent.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first":
			req.FirstName = first
		case "last":
			req.LastName = last
		case "pronouns":
			req.Pronouns = pronouns
		case "phone":
			req.Phone = phone
		}
	})
	if *image != "" {
		data, err := os.ReadFile(*image)
		if err != nil {
			return err
		}
		req.Image = data
	}
	resp, err := e.c.Profile.UpdateProfile(e.ctx, req)
	if err != nil {
		return err
	}
	if e.json {
		outputJSON(resp)
		return nil
	}
	printUser(os.Stdout, resp.User)
	return nil
}
