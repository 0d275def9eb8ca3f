/*
Package motherlink serves the MotherLink USSD menu: registration, info updates,
emergency and distress reporting, and health guidance for mothers, in
Kinyarwanda and English.

Every carrier request carries the whole choice path since the session began
("1*1*2*Jane"). The Service replays that path against an immutable menu
catalog, persisting free text typed at input screens, and answers with a
"CON " screen (more input expected) or an "END " message (session over).

# Usage

	svc, err := motherlink.New(
		motherlink.WithUsers(users),
		motherlink.WithEmergencies(reporter),
		motherlink.WithNotifier(notifier),
		motherlink.WithGuidance(guidance),
	)
	if err != nil {
		log.Fatal(err)
	}
	svc.StartSweeper(ctx)

	reply := svc.Handle(ctx, domain.Request{
		SessionID:   "ATUid_123",
		PhoneNumber: "+250788000001",
		Path:        "2*7",
	})

Sessions live in memory unless WithStore supplies another store, such as
the Redis adapter, in which case WithLocker can serialize requests for one
session across replicas.
*/
package motherlink
