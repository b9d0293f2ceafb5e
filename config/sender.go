package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	_ "github.com/lib/pq"
	"github.com/skip2/go-qrcode"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
)

var (
	meowWhatsapp *whatsmeow.Client
	qrCodeSaved  bool
	mu           sync.Mutex
)

// WhatsappEnabled reports whether the WhatsApp sink should be wired at
// all. The session store needs a Postgres database either way, so the
// sink is opt-in.
func WhatsappEnabled() bool {
	return os.Getenv("WHATSAPP_ENABLED") == "true"
}

// InitMeow connects the WhatsApp client. On first run there is no
// session yet; the pairing QR code is written to qrcode.png next to the
// binary and has to be scanned before sends work.
func InitMeow() (*whatsmeow.Client, error) {
	dbms, err := getDBMS()
	if err != nil {
		return nil, err
	}

	user, err := getDBUser()
	if err != nil {
		return nil, err
	}

	pass, err := getDBPassword()
	if err != nil {
		return nil, err
	}

	dbname, err := getDBName()
	if err != nil {
		return nil, err
	}

	meowAddress := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=disable", *user, *pass, *dbname)

	ctx := context.Background()
	container, err := sqlstore.New(ctx, *dbms, meowAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsmeow store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load whatsmeow device: %w", err)
	}
	mClient := whatsmeow.NewClient(deviceStore, nil)
	meowWhatsapp = mClient

	if meowWhatsapp.Store.ID == nil {
		qrChan, _ := meowWhatsapp.GetQRChannel(ctx)
		if err := meowWhatsapp.Connect(); err != nil {
			return nil, err
		}

		for evt := range qrChan {
			if evt.Event == "code" {
				mu.Lock()
				if !qrCodeSaved {
					fmt.Println("")
					fmt.Println("IMPORTANT no WhatsApp session was found !!")
					fmt.Println("Scan the QR code for the notifier to work!")

					if err := generateQRCode(evt.Code, "qrcode.png"); err != nil {
						mu.Unlock()
						return nil, err
					}
					fmt.Println("QR code written to qrcode.png, go ahead and scan it :)")
					fmt.Println("")

					qrCodeSaved = true
				}
				mu.Unlock()
			} else {
				fmt.Println("Login event:", evt.Event)
			}
		}
	} else {
		if err := meowWhatsapp.Connect(); err != nil {
			return nil, err
		}
		fmt.Println("WhatsMeow initialized")
	}

	return meowWhatsapp, nil
}

func getDBMS() (*string, error) {
	dbms := os.Getenv("DBMS")
	if dbms == "" {
		return nil, fmt.Errorf("DBMS is missing, value: %s", dbms)
	}
	return &dbms, nil
}

func getDBUser() (*string, error) {
	v := os.Getenv("DB_USER")
	if v == "" {
		return nil, fmt.Errorf("DATABASE User is missing, value: %s", v)
	}
	return &v, nil
}

func getDBPassword() (*string, error) {
	v := os.Getenv("DB_PASSWORD")
	if v == "" {
		return nil, fmt.Errorf("DATABASE Password is missing, value: %s", v)
	}
	return &v, nil
}

func getDBName() (*string, error) {
	v := os.Getenv("DB_DATABASE")
	if v == "" {
		return nil, fmt.Errorf("DB Name is missing, value: %s", v)
	}
	return &v, nil
}

func generateQRCode(data, filePath string) error {
	err := qrcode.WriteFile(data, qrcode.Medium, 256, filePath)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %v", err)
	}
	return nil
}
