/*
Package domain contains the core domain models of the MotherLink USSD service.

It defines the fundamental entities of the menu traversal engine, such as menu nodes,
successors, sessions and the records handed to external collaborators. This package is
kept pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - MenuNode: A screen in the menu catalog (prompt, choices, free-text acceptance).
  - Successor: Where a choice leads: another menu, an immediate action or a terminal action.
  - Session: Per-session state (language, captured inputs, last activity).
  - Request: One inbound USSD request carrying the full choice path since session start.
*/
package domain
