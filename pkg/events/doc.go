/*
Package events implements the Event Bus & Render Scheduler: a single
bounded queue that every asynchronous source — file-watch, chat
provider responses, health cycles, crash notifications, keyboard
input — publishes onto, and a downstream scheduler that turns those
events into coalesced, dirty-region redraws.

The Bus itself is the teacher's cluster event broker generalized: the
same subscribe/unsubscribe/publish/broadcast-with-drop shape, but
bounded at QueueCapacity with a critical-events-never-dropped policy
instead of an unbounded channel. Scheduler sits on one subscription,
marks Panels dirty per event, and calls an injected Renderer at most
once per coalesced frame.
*/
package events
