package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/auth"
	"github.com/shdpixel/storefront-client/cart"
	"github.com/shdpixel/storefront-client/catalog"
	"github.com/shdpixel/storefront-client/checkout"
	"github.com/shdpixel/storefront-client/internal/config"
	"github.com/shdpixel/storefront-client/orders"
	"github.com/shdpixel/storefront-client/payments"
	"github.com/shdpixel/storefront-client/store"
	"github.com/shdpixel/storefront-client/users"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(args) == 0 {
		displayAppname(c.GetAppName())
		usage()
		return nil
	}

	app, err := buildApp(c, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return app.dispatch(ctx, args)
}

type app struct {
	log      zerolog.Logger
	auth     *auth.Service
	cart     *cart.Reconciler
	catalog  *catalog.Service
	orders   *orders.Service
	checkout *checkout.Flow
}

func buildApp(c config.Config, log zerolog.Logger) (*app, error) {
	fileStore, err := store.NewFileStore(c.GetDataFolder())
	if err != nil {
		return nil, err
	}

	// The refresh endpoint authenticates with a cookie, so the client needs a jar.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: c.GetHTTPTimeout(), Jar: jar}

	client, err := api.New(c.GetAPIBaseURL(), fileStore,
		api.WithHTTPClient(httpClient),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(client, auth.WithLogger(log))
	if err != nil {
		return nil, err
	}
	cartRec, err := cart.NewReconciler(client, fileStore, cart.WithLogger(log))
	if err != nil {
		return nil, err
	}
	catalogService, err := catalog.NewService(client)
	if err != nil {
		return nil, err
	}
	orderService, err := orders.NewService(client)
	if err != nil {
		return nil, err
	}
	coordinator, err := payments.NewCoordinator(client, consoleGateway{},
		payments.WithLogger(log),
		payments.WithFallbackKeyID(c.GetRazorpayKeyID()),
		payments.WithFallbackCurrency(c.GetDefaultCurrency()),
	)
	if err != nil {
		return nil, err
	}
	flow, err := checkout.NewFlow(cartRec, orderService, coordinator, checkout.WithLogger(log))
	if err != nil {
		return nil, err
	}

	// Merge the offline cart into the server cart when a session comes up.
	authService.OnAuthenticated(func(ctx context.Context, user *users.User) {
		if err := cartRec.SyncOnLogin(ctx, strconv.Itoa(user.ID)); err != nil {
			log.Warn().Err(err).Msg("cart sync failed")
		}
	})

	return &app{
		log:      log,
		auth:     authService,
		cart:     cartRec,
		catalog:  catalogService,
		orders:   orderService,
		checkout: flow,
	}, nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "login":
		if len(args) != 3 {
			return errors.New("usage: storefront login <username> <password>")
		}
		session, err := a.auth.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", session.User.Username)
		return nil

	case "logout":
		a.auth.Logout(ctx)
		a.cart.Logout()
		fmt.Println("Logged out")
		return nil

	case "register":
		if len(args) != 4 {
			return errors.New("usage: storefront register <email> <username> <password>")
		}
		return a.auth.Register(ctx, users.Registration{Email: args[1], Username: args[2], Password: args[3]})

	case "me":
		session, err := a.resume(ctx)
		if err != nil {
			return err
		}
		if !session.Authenticated {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("%s <%s>\n", session.User.Username, session.User.Email)
		return nil

	case "products":
		products, err := a.catalog.Products(ctx, catalog.ListParams{Limit: 50})
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%4d  %-40s %10.2f  (stock %d)\n", p.ID, p.Name, p.Price, p.StockQuantity)
		}
		return nil

	case "reviews":
		if len(args) != 2 {
			return errors.New("usage: storefront reviews <product id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		reviews, err := a.catalog.Reviews(ctx, id)
		if err != nil {
			return err
		}
		for _, review := range reviews {
			fmt.Printf("%-20s %d/5  %s\n", review.ReviewerName, review.Rating, review.Comment)
		}
		return nil

	case "cart":
		return a.cartCommand(ctx, args[1:])

	case "checkout":
		if len(args) < 2 {
			return errors.New("usage: storefront checkout <shipping address> [payment method]")
		}
		if _, err := a.resume(ctx); err != nil {
			return err
		}
		method := orders.PaymentCashOnDelivery
		if len(args) > 2 {
			method = args[2]
		}
		result, err := a.checkout.Run(ctx, checkout.Request{ShippingAddress: args[1], PaymentMethod: method})
		if err != nil {
			return err
		}
		fmt.Printf("Order #%d placed (paid: %t)\n", result.OrderID, result.Paid)
		return nil

	case "orders":
		if _, err := a.resume(ctx); err != nil {
			return err
		}
		list, err := a.orders.List(ctx)
		if err != nil {
			return err
		}
		for _, o := range list {
			fmt.Printf("#%-5d %-12s %-10s %10.2f\n", o.ID, o.Status, o.PaymentStatus, o.TotalAmount)
		}
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	if _, err := a.resume(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"show"}
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return errors.New("usage: storefront cart add <product id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		product, err := a.catalog.Product(ctx, id)
		if err != nil {
			return err
		}
		a.cart.AddItem(ctx, *product)
		return nil

	case "rm":
		if len(args) != 2 {
			return errors.New("usage: storefront cart rm <product id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		a.cart.RemoveItem(ctx, id)
		return nil

	case "set":
		if len(args) != 3 {
			return errors.New("usage: storefront cart set <product id> <quantity>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		a.cart.UpdateQuantity(ctx, id, quantity)
		return nil

	case "clear":
		a.cart.Clear(ctx)
		return nil

	case "show":
		for _, item := range a.cart.Items() {
			fmt.Printf("%4d  %-40s x%-3d %10.2f\n", item.ProductID, item.Name, item.Quantity, item.Price*float64(item.Quantity))
		}
		fmt.Printf("Total: %.2f (%d items)\n", a.cart.Total(), a.cart.Count())
		return nil

	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

// resume restores the session from the persisted token, which also triggers
// the cart sync when it comes up authenticated.
func (a *app) resume(ctx context.Context) (auth.Session, error) {
	return a.auth.CheckStatus(ctx)
}

// consoleGateway is a stand-in checkout widget for terminal use: without a
// real payment UI it reports cancellation so the order stays payable.
type consoleGateway struct{}

func (consoleGateway) Open(ctx context.Context, options payments.CheckoutOptions) (payments.Outcome, error) {
	fmt.Printf("Pay %d %s for %s via your payment app (order %s), then verify from the order page.\n",
		options.Amount, options.Currency, options.Description, options.ProviderOrderID)
	return payments.Outcome{Status: payments.OutcomeCancelled}, nil
}

func usage() {
	fmt.Println(`Commands:
  login <username> <password>
  logout
  register <email> <username> <password>
  me
  products
  reviews <product id>
  cart [show|add <id>|rm <id>|set <id> <qty>|clear]
  checkout <shipping address> [payment method]
  orders`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
