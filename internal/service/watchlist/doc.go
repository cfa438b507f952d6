// Package watchlist manages user-named collections of tracked pages
// and the on-demand bulk rescore of their members.
package watchlist
